package domain

// CatalogItem is a vessel record normalized from an upstream automation
// payload. Absent upstream fields stay nil.
type CatalogItem struct {
	ID              string   `json:"id,omitempty"`
	Name            *string  `json:"name,omitempty"`
	Model           *string  `json:"model,omitempty"`
	ServiceType     *string  `json:"service_type,omitempty"`
	BoatType        *string  `json:"boat_type,omitempty"`
	Base            *string  `json:"base,omitempty"`
	Country         *string  `json:"country,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	LengthFt        *string  `json:"length_ft,omitempty"`
	Image           *string  `json:"image,omitempty"`
	DefaultCurrency *string  `json:"default_currency,omitempty"`
	DefaultPrice    *float64 `json:"default_price,omitempty"`
}

type Itinerary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ProposalPayload is the submission contract sent to the proposal webhook.
// Built fresh per submit attempt and never mutated afterwards.
type ProposalPayload struct {
	Language    string         `json:"language"`
	Boats       []ProposalBoat `json:"boats"`
	Client      ProposalClient `json:"client"`
	CTA         ProposalCTA    `json:"cta"`
	Itineraries []ItineraryRef `json:"itineraries"`
	Meta        ProposalMeta   `json:"meta"`
}

type ProposalBoat struct {
	ID        string  `json:"id"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	PriceNote *string `json:"priceNote"`
}

type ProposalClient struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type ProposalCTA struct {
	MessageFromBroker string  `json:"messageFromBroker"`
	ClientNoteEnabled bool    `json:"clientNoteEnabled"`
	FinalNotes        *string `json:"finalNotes"`
}

type ItineraryRef struct {
	ID string `json:"id"`
}

type ProposalMeta struct {
	Source     string `json:"source"`
	ProposalID string `json:"proposalId"`
	Timestamp  string `json:"timestamp" format:"date-time"`
}

// RelayResult mirrors one upstream exchange back to the caller. Status and
// Ok come verbatim from the upstream response; Data holds the decoded JSON
// body, or the raw text when the body is not JSON.
type RelayResult struct {
	Ok             bool   `json:"ok"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Data           any    `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	RequestID      string `json:"requestId"`
}

// Exchange is one archived relay invocation.
type Exchange struct {
	ID        int64  `json:"id"`
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Status    int    `json:"status"`
	Ok        bool   `json:"ok"`
	Body      string `json:"body,omitempty"`
	TS        string `json:"ts" format:"date-time"`
}

// ProposalRecord is an archived submission attempt with its relay outcome.
type ProposalRecord struct {
	ProposalID     string `json:"proposal_id"`
	SessionID      string `json:"session_id,omitempty"`
	Language       string `json:"language"`
	Currency       string `json:"currency"`
	ClientName     string `json:"client_name,omitempty"`
	ClientEmail    string `json:"client_email,omitempty"`
	BoatCount      int    `json:"boat_count"`
	PayloadJSON    string `json:"payload_json"`
	RequestID      string `json:"request_id"`
	UpstreamStatus int    `json:"upstream_status"`
	Ok             bool   `json:"ok"`
	CreatedAt      string `json:"created_at" format:"date-time"`
}
