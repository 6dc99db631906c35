package core

import "time"

const (
	ChronicleName          = "Chronicle"
	ChronicleUserAgent     = "Chronicle-Bot/0.1"
	ChronicleRepositoryURL = "https://github.com/sandevgo/chronicle"
	ChronicleVersion       = "0.1.0"
)

// Phase is one of the four canonical development stages a journal
// document is classified into.
type Phase string

const (
	PhasePlanning       Phase = "planning"
	PhaseImplementation Phase = "implementation"
	PhaseDebugging      Phase = "debugging"
	PhaseResults        Phase = "results"
)

// PhaseOrder returns the canonical phase ordering. Tie-breaks and
// sequencing always follow this order.
func PhaseOrder() []Phase {
	return []Phase{PhasePlanning, PhaseImplementation, PhaseDebugging, PhaseResults}
}

// PhaseRank returns the position of p in the canonical order, or -1
// for an unknown phase.
func PhaseRank(p Phase) int {
	for i, ph := range PhaseOrder() {
		if ph == p {
			return i
		}
	}
	return -1
}

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusAnalyzed   ProcessingStatus = "analyzed"
	StatusError      ProcessingStatus = "error"
)

// SourceDocument is one uploaded journal document plus everything the
// classifier derived from it. Immutable once ProcessingStatus is
// analyzed, except for content edits that force re-classification.
type SourceDocument struct {
	ID                string           `json:"id"`
	Filename          string           `json:"filename"`
	RawText           string           `json:"raw_text"`
	UploadedAt        time.Time        `json:"uploaded_at"`
	Phase             Phase            `json:"phase"`
	ContentSummary    string           `json:"content_summary"`
	Themes            []string         `json:"themes"`
	TechnicalElements []string         `json:"technical_elements"`
	BusinessImpacts   []string         `json:"business_impacts"`
	Challenges        []string         `json:"challenges"`
	Solutions         []string         `json:"solutions"`
	WordCount         int              `json:"word_count"`
	ComplexityScore   float64          `json:"complexity_score"`
	ProcessingStatus  ProcessingStatus `json:"processing_status"`
}

type RelationshipType string

const (
	RelationSequential RelationshipType = "sequential"
	RelationThematic   RelationshipType = "thematic"
	RelationTechnical  RelationshipType = "technical"
	RelationWeak       RelationshipType = "weak"
)

// RelationshipEdge links an unordered pair of documents. Strength is
// the mean of the three overlap signals; only edges with strength
// above 0.3 are retained in a narrative.
type RelationshipEdge struct {
	DocA           string           `json:"doc_a"`
	DocB           string           `json:"doc_b"`
	ThemeOverlap   float64          `json:"theme_overlap"`
	TechOverlap    float64          `json:"tech_overlap"`
	PhaseAdjacency float64          `json:"phase_adjacency"`
	Strength       float64          `json:"strength"`
	Type           RelationshipType `json:"type"`
}

type ThreadType string

const (
	ThreadTheme                ThreadType = "theme"
	ThreadTechnicalProgression ThreadType = "technical_progression"
	ThreadProblemSolution      ThreadType = "problem_solution"
	ThreadLearning             ThreadType = "learning"
)

type ContentThread struct {
	Type        ThreadType `json:"type"`
	Name        string     `json:"name"`
	DocumentIDs []string   `json:"document_ids"`
	Strength    float64    `json:"strength"`
}

// ProjectNarrative is the project-level view over a finalized document
// batch. Rebuilt wholesale whenever the batch changes.
type ProjectNarrative struct {
	ProjectTheme         string          `json:"project_theme"`
	NarrativeArc         string          `json:"narrative_arc"`
	KeyChallenges        []string        `json:"key_challenges"`
	SolutionsImplemented []string        `json:"solutions_implemented"`
	TechnicalStack       []string        `json:"technical_stack"`
	BusinessOutcomes     []string        `json:"business_outcomes"`
	ContentThreads       []ContentThread `json:"content_threads"`
	EstimatedPosts       int             `json:"estimated_posts"`
	CompletenessScore    float64         `json:"completeness_score"`
	CohesionScore        float64         `json:"cohesion_score"`
}

type Audience string

const (
	AudienceTechnical Audience = "technical"
	AudienceBusiness  Audience = "business"
)

// SequenceEntry is one slot in the publishing order. Position is 1-based.
type SequenceEntry struct {
	Position        int      `json:"position"`
	DocumentID      string   `json:"document_id"`
	Theme           string   `json:"theme"`
	RecommendedTone string   `json:"recommended_tone"`
	TargetAudience  Audience `json:"target_audience"`
}

type ConnectionType string

const (
	ConnContinuation ConnectionType = "continuation"
	ConnDependency   ConnectionType = "dependency"
	ConnImprovement  ConnectionType = "improvement"
	ConnComparison   ConnectionType = "comparison"
	ConnRelated      ConnectionType = "related"
	ConnTechnical    ConnectionType = "technical"
)

// CrossReference points from a later post back to an earlier one.
// Strength is the keyword match count that selected the connection.
type CrossReference struct {
	FromID         string         `json:"from_id"`
	ToID           string         `json:"to_id"`
	ConnectionType ConnectionType `json:"connection_type"`
	ReferenceText  string         `json:"reference_text"`
	Strength       int            `json:"strength"`
}

// PostingStrategy is the ordered, cross-referenced publication plan.
type PostingStrategy struct {
	Sequence        []SequenceEntry  `json:"sequence"`
	CrossReferences []CrossReference `json:"cross_references"`
	TechnicalPosts  int              `json:"technical_posts"`
	BusinessPosts   int              `json:"business_posts"`
	NarrativeFlow   string           `json:"narrative_flow"`
	TimelineHint    string           `json:"timeline_hint"`
}

// Customization adjusts sequencing without touching upstream state.
type Customization struct {
	DocumentOrder     []string `json:"document_order,omitempty"`
	ExcludedThemes    []string `json:"excluded_themes,omitempty"`
	ExcludedDocuments []string `json:"excluded_documents,omitempty"`
}

type MessageType string

const (
	MsgText             MessageType = "text"
	MsgFileUpload       MessageType = "file_upload"
	MsgToneSelection    MessageType = "tone_selection"
	MsgPostApproval     MessageType = "post_approval"
	MsgPostRegeneration MessageType = "post_regeneration"
	MsgFeedback         MessageType = "feedback"
	MsgButtonClick      MessageType = "button_click"
)

// InteractionRecord is one logged user-facing exchange. Append-only:
// records are never mutated after creation.
type InteractionRecord struct {
	Timestamp         time.Time         `json:"timestamp"`
	UserMessage       string            `json:"user_message"`
	SystemResponse    string            `json:"system_response"`
	MessageType       MessageType       `json:"message_type"`
	Context           map[string]string `json:"context,omitempty"`
	SatisfactionScore *float64          `json:"satisfaction_score,omitempty"`
	RegenerationCount int               `json:"regeneration_count"`
}

// ContextSelection is the relevance-ordered, budget-bounded slice of a
// session's interaction history forwarded into generation prompts.
type ContextSelection struct {
	Records           []InteractionRecord `json:"records"`
	TokensUsed        int                 `json:"tokens_used"`
	ContextBlock      string              `json:"context_block"`
	PreferenceSummary string              `json:"preference_summary"`
}
