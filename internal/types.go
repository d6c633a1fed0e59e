package internal

// Product is a normalized catalog entry. Rows coming out of supplier files and
// products created by hand share this shape, so the scoring engine cannot tell
// them apart.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       float64         `json:"base_price"`
	Category        string          `json:"category"`
	Characteristics Characteristics `json:"characteristics"`
	ImageURL        *string         `json:"image_url,omitempty"`
	OwnerID         string          `json:"user_id"`
	CreatedAt       string          `json:"created_at"`
}

type MarkingTechnique struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Description string  `json:"description"`
	OwnerID     string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
}

// ParsedRequest is the structured form of a free-text client request.
// Optional fields stay empty (or zero) when no synonym matched.
type ParsedRequest struct {
	Categoria      string  `json:"categoria"`
	Cantidad       int     `json:"cantidad"`
	Calidad        string  `json:"calidad,omitempty"`
	Tecnica        string  `json:"tecnica,omitempty"`
	AreaCm2        float64 `json:"area_cm2,omitempty"`
	Cobertura      string  `json:"cobertura,omitempty"`
	Dimensiones    string  `json:"dimensiones,omitempty"`
	Posicion       string  `json:"posicion,omitempty"`
	PresupuestoMax float64 `json:"presupuesto_max,omitempty"`
}

// TierProduct is the sampled slice of a tier shown in the quote breakdown.
type TierProduct struct {
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
}

type TierDetail struct {
	Products       []TierProduct `json:"products"`
	AvgUnitPrice   float64       `json:"avg_unit_price"`
	MarkingPerUnit float64       `json:"marking_per_unit"`
	UnitPrice      float64       `json:"unit_price"`
	Total          float64       `json:"total"`
	Description    string        `json:"description"`
}

// QuoteBreakdown is the single nested object carried inside Quote.Products.
type QuoteBreakdown struct {
	RequestText string        `json:"request_text"`
	Parsed      ParsedRequest `json:"parsed"`
	Basic       TierDetail    `json:"basic"`
	Medium      TierDetail    `json:"medium"`
	Premium     TierDetail    `json:"premium"`
}

// Quote is written once at generation time and never mutated afterwards.
type Quote struct {
	ID                string           `json:"id"`
	ClientName        string           `json:"client_name"`
	Products          []QuoteBreakdown `json:"products"`
	TotalBasic        float64          `json:"total_basic"`
	TotalMedium       float64          `json:"total_medium"`
	TotalPremium      float64          `json:"total_premium"`
	MarkingTechniques []string         `json:"marking_techniques"`
	OwnerID           string           `json:"user_id"`
	CreatedAt         string           `json:"created_at"`
}

// RowError records a single failed row; the batch proceeds around it.
type RowError struct {
	Row    int
	Reason string
}

type InboundMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}
