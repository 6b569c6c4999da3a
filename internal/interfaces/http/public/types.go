package public

type inspectionResponse struct {
	OK       bool   `json:"ok"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type itemTypesResponse struct {
	ItemTypes []string `json:"itemTypes"`
	Levels    []int    `json:"levels"`
}
