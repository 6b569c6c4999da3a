package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	"github.com/sngm3741/inspection-intake/api/internal/infrastructure/google"
	"github.com/sngm3741/inspection-intake/api/internal/infrastructure/local"
	"github.com/sngm3741/inspection-intake/api/internal/infrastructure/messenger"
	mongodoc "github.com/sngm3741/inspection-intake/api/internal/infrastructure/mongo"
	s3storage "github.com/sngm3741/inspection-intake/api/internal/infrastructure/s3"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// buildGateways は設定で選ばれたバックエンドのクライアントを生成する。
// クライアントは起動時に一度だけ作り、全リクエストで共有する。
func buildGateways(ctx context.Context, cfg config.Config, logger zerolog.Logger, client *mongo.Client) (Gateways, error) {
	var gateways Gateways
	db := mongoDatabase(cfg, client)

	creds := google.Credentials{
		Email:      cfg.Google.ServiceAccountEmail,
		PrivateKey: cfg.Google.ServiceAccountKey,
		JSON:       cfg.Google.CredentialsJSON,
	}

	storage, err := newStorage(ctx, cfg, creds)
	if err != nil {
		return Gateways{}, err
	}
	gateways.Storage = storage

	switch cfg.TabularBackend {
	case config.TabularSheets:
		appender, err := google.NewSheetsAppender(ctx, creds, google.SheetsConfig{
			SpreadsheetID: cfg.SpreadsheetID,
			SheetName:     cfg.SheetName,
			LastColumn:    cfg.RowLayout.LastColumn(),
		})
		if err != nil {
			return Gateways{}, domain.NewError(domain.KindConfiguration, "sheets client", err)
		}
		gateways.Appender = appender
	case config.TabularMongo:
		if db == nil {
			return Gateways{}, domain.NewError(domain.KindConfiguration, "mongo rows", fmt.Errorf("missing env var: MONGO_URI"))
		}
		gateways.Appender = mongodoc.NewRowRepository(db, cfg.RowCollection, cfg.SheetName)
	default:
		return Gateways{}, domain.NewError(domain.KindConfiguration, "tabular backend", fmt.Errorf("unknown TABULAR_BACKEND %q", cfg.TabularBackend))
	}

	var failures messenger.FailureStore
	if db != nil {
		gateways.Orphans = mongodoc.NewOrphanRepository(db, cfg.OrphanCollection)
		failures = mongodoc.NewFailedNotificationRepository(db, cfg.FailedNotifCollection)
	}
	gateways.Notifier = newNotifier(cfg, logger, failures)

	logger.Info().
		Str("storage", cfg.StorageBackend).
		Str("tabular", cfg.TabularBackend).
		Str("folder_policy", string(cfg.FolderPolicy)).
		Str("row_layout", string(cfg.RowLayout)).
		Str("photo_cell", string(cfg.PhotoCell)).
		Bool("orphan_store", gateways.Orphans != nil).
		Bool("notifier", gateways.Notifier != nil).
		Msg("ゲートウェイを初期化")

	return gateways, nil
}

func newStorage(ctx context.Context, cfg config.Config, creds google.Credentials) (application.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageDrive:
		storage, err := google.NewDriveStorage(ctx, creds)
		if err != nil {
			return nil, domain.NewError(domain.KindConfiguration, "drive client", err)
		}
		return storage, nil
	case config.StorageS3:
		storage, err := s3storage.NewStorage(ctx, s3storage.Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			MediaBaseURL:    cfg.MediaBaseURL,
		})
		if err != nil {
			return nil, domain.NewError(domain.KindConfiguration, "s3 client", err)
		}
		return storage, nil
	case config.StorageLocal:
		storage, err := local.NewStorage(cfg.LocalDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, domain.NewError(domain.KindConfiguration, "local storage", err)
		}
		return storage, nil
	default:
		return nil, domain.NewError(domain.KindConfiguration, "storage backend", fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend))
	}
}
