package hubspot

// Object is one CRM record as the v3 objects API returns it. Property values
// arrive as strings regardless of their declared type.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	Archived   bool              `json:"archived"`
}

// Page is one page of objects plus the cursor for the next one. NextAfter is
// empty on the last page.
type Page struct {
	Results   []Object
	NextAfter string
}

type Owner struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	UserID    int64    `json:"userId"`
	Archived  bool     `json:"archived"`
	Teams     []Team   `json:"teams"`
}

type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
}

type Pipeline struct {
	ID           string          `json:"id"`
	Label        string          `json:"label"`
	DisplayOrder int             `json:"displayOrder"`
	Stages       []PipelineStage `json:"stages"`
}

type PipelineStage struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	DisplayOrder int               `json:"displayOrder"`
	Metadata     map[string]string `json:"metadata"`
}

// Engagement is one record from the v1 engagements feed.
type Engagement struct {
	Engagement   EngagementCore         `json:"engagement"`
	Associations EngagementAssociations `json:"associations"`
	Metadata     map[string]any         `json:"metadata"`
}

type EngagementCore struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	OwnerID   int64  `json:"ownerId"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"createdAt"`
}

type EngagementAssociations struct {
	ContactIDs []int64 `json:"contactIds"`
	CompanyIDs []int64 `json:"companyIds"`
	DealIDs    []int64 `json:"dealIds"`
}

// EngagementPage carries v1 offset paging state. Offset repeats the last
// offset on some tenant configurations, which callers must guard against.
type EngagementPage struct {
	Results []Engagement `json:"results"`
	HasMore bool         `json:"hasMore"`
	Offset  int64        `json:"offset"`
}
