package legiscan

// envelope is the top-level shape shared by every API response.
type envelope struct {
	Status string `json:"status"`
	Alert  *Alert `json:"alert,omitempty"`
}

// Alert carries the upstream error message on a non-OK response.
type Alert struct {
	Message string `json:"message"`
}

// SearchHit is one raw result from getSearchRaw. Identity is BillID;
// everything else is advisory until the full bill is fetched.
type SearchHit struct {
	BillID     int    `json:"bill_id"`
	BillNumber string `json:"bill_number"`
	State      string `json:"state"`
	Title      string `json:"title"`
	Relevance  int    `json:"relevance"`
	URL        string `json:"url"`
	ChangeHash string `json:"change_hash"`
}

// SearchSummary is the getSearchRaw result header.
type SearchSummary struct {
	Page        string `json:"page"`
	Relevancy   string `json:"relevancy"`
	Count       int    `json:"count"`
	PageCurrent int    `json:"page_current"`
	PageTotal   int    `json:"page_total"`
}

// SearchResult is the payload of a getSearchRaw response.
type SearchResult struct {
	Summary SearchSummary `json:"summary"`
	Results []SearchHit   `json:"results"`
}

type searchRawResponse struct {
	envelope
	SearchResult SearchResult `json:"searchresult"`
}

// Session describes a legislative session as returned by getSessionList
// and embedded in bill details.
type Session struct {
	SessionID   int    `json:"session_id"`
	StateID     int    `json:"state_id"`
	YearStart   int    `json:"year_start"`
	YearEnd     int    `json:"year_end"`
	Special     int    `json:"special"`
	SessionName string `json:"session_name"`
}

type sessionListResponse struct {
	envelope
	Sessions []Session `json:"sessions"`
}

// Sponsor is a legislator attached to a bill. The primary sponsor carries
// the lowest SponsorOrder.
type Sponsor struct {
	PeopleID     int    `json:"people_id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Role         string `json:"role"`
	SponsorOrder int    `json:"sponsor_order"`
}

// HistoryEntry is one procedural event in a bill's history, dated YYYY-MM-DD.
type HistoryEntry struct {
	Date    string `json:"date"`
	Action  string `json:"action"`
	Chamber string `json:"chamber"`
}

// Bill is the full upstream record returned by getBill.
type Bill struct {
	BillID      int            `json:"bill_id"`
	BillNumber  string         `json:"bill_number"`
	BillType    string         `json:"bill_type"`
	State       string         `json:"state"` // postal abbreviation
	Session     Session        `json:"session"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      int            `json:"status"`
	StatusDate  string         `json:"status_date"`
	Sponsors    []Sponsor      `json:"sponsors"`
	History     []HistoryEntry `json:"history"`
	URL         string         `json:"url"`
	StateLink   string         `json:"state_link"`
	StateURL    string         `json:"state_url"`
}

type billResponse struct {
	envelope
	Bill Bill `json:"bill"`
}
