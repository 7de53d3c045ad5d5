package core

// LabelKey is a semantic label in the fixed taxonomy
type LabelKey string

const (
	LabelToRespond     LabelKey = "TO_RESPOND"
	LabelFYI           LabelKey = "FYI"
	LabelComment       LabelKey = "COMMENT"
	LabelNotification  LabelKey = "NOTIFICATION"
	LabelMeetingUpdate LabelKey = "MEETING_UPDATE"
	LabelMarketing     LabelKey = "MARKETING"
	LabelTickets       LabelKey = "TICKETS"
	LabelReceipts      LabelKey = "RECEIPTS"
)

// LabelKeys is the taxonomy in declared order
var LabelKeys = []LabelKey{
	LabelToRespond,
	LabelFYI,
	LabelComment,
	LabelNotification,
	LabelMeetingUpdate,
	LabelMarketing,
	LabelTickets,
	LabelReceipts,
}

// DefaultLabelNames are the display names used when none are configured
var DefaultLabelNames = map[LabelKey]string{
	LabelToRespond:     "To Respond",
	LabelFYI:           "FYI",
	LabelComment:       "Comment",
	LabelNotification:  "Notification",
	LabelMeetingUpdate: "Meeting Update",
	LabelMarketing:     "Marketing",
	LabelTickets:       "Tickets",
	LabelReceipts:      "Receipts",
}

var labelDescriptions = map[LabelKey]string{
	LabelToRespond:     "Emails that need a reply or action from me: direct questions, requests, ongoing conversations with people I know.",
	LabelFYI:           "Informational emails worth reading but needing no action or reply.",
	LabelComment:       "Comments, feedback or review requests on documents, code or tasks (e.g. Google Docs, GitHub, Figma).",
	LabelNotification:  "Automated notifications from services I use: account alerts, status updates, security notices, system messages.",
	LabelMeetingUpdate: "Calendar invitations, meeting acceptances, declines, cancellations and schedule changes.",
	LabelMarketing:     "Promotional content, newsletters, sales offers and cold outreach from senders I have never corresponded with.",
	LabelTickets:       "Travel and event tickets: flights, trains, buses, boarding passes, bookings, reservations and itineraries.",
	LabelReceipts:      "Purchase receipts, order confirmations, invoices, payment and shipping confirmations.",
}

// LabelDef binds a semantic label to its provider identifier
type LabelDef struct {
	Key         LabelKey `json:"key"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// Taxonomy is the closed set of eight labels with provider ids
type Taxonomy struct {
	labels []LabelDef
	byKey  map[LabelKey]LabelDef
	byID   map[string]LabelDef
}

// NewTaxonomy builds a taxonomy from provider ids and display names keyed by label.
// Missing ids default to the semantic key and missing names to DefaultLabelNames.
func NewTaxonomy(ids map[LabelKey]string, names map[LabelKey]string) *Taxonomy {
	t := &Taxonomy{
		labels: make([]LabelDef, 0, len(LabelKeys)),
		byKey:  make(map[LabelKey]LabelDef, len(LabelKeys)),
		byID:   make(map[string]LabelDef, len(LabelKeys)),
	}
	for _, key := range LabelKeys {
		def := LabelDef{
			Key:         key,
			ID:          ids[key],
			Name:        names[key],
			Description: labelDescriptions[key],
		}
		if def.ID == "" {
			def.ID = string(key)
		}
		if def.Name == "" {
			def.Name = DefaultLabelNames[key]
		}
		t.labels = append(t.labels, def)
		t.byKey[key] = def
		t.byID[def.ID] = def
	}
	return t
}

// DefaultTaxonomy uses the semantic keys as provider ids
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(nil, nil)
}

// Labels returns the label definitions in declared order
func (t *Taxonomy) Labels() []LabelDef {
	out := make([]LabelDef, len(t.labels))
	copy(out, t.labels)
	return out
}

// Get returns the definition for a semantic label
func (t *Taxonomy) Get(key LabelKey) LabelDef {
	return t.byKey[key]
}

// ByID returns the definition for a provider label id
func (t *Taxonomy) ByID(id string) (LabelDef, bool) {
	def, ok := t.byID[id]
	return def, ok
}

// NameFor returns the display name for a provider id, or the id itself if unknown
func (t *Taxonomy) NameFor(id string) string {
	if def, ok := t.byID[id]; ok {
		return def.Name
	}
	return id
}

// Contains reports whether the id belongs to the taxonomy
func (t *Taxonomy) Contains(id string) bool {
	_, ok := t.byID[id]
	return ok
}
