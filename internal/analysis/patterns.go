package analysis

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sandevgo/chronicle/internal/core"
)

// Vocabulary is an ordered category with its keyword set. Order
// matters: extraction keeps first-encountered categories.
type Vocabulary struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// PatternLibrary holds the static keyword tables every heuristic in
// the pipeline scores against. All matching is lowercase substring.
type PatternLibrary struct {
	PhasePatterns      map[core.Phase][]string
	Themes             []Vocabulary
	TechnicalElements  []Vocabulary
	BusinessImpacts    []Vocabulary
	ChallengeTriggers  []string
	SolutionTriggers   []string
	LearningKeywords   []string
	DepthIndicators    []string
	ConnectionPatterns map[core.ConnectionType][]string
	TechnicalThemes    map[string]bool
}

// NewPatternLibrary returns the built-in tables.
func NewPatternLibrary() *PatternLibrary {
	return &PatternLibrary{
		PhasePatterns: map[core.Phase][]string{
			core.PhasePlanning: {
				"plan", "design", "architecture", "roadmap", "requirement",
				"proposal", "spec", "estimate", "scope", "research", "draft",
			},
			core.PhaseImplementation: {
				"implement", "build", "develop", "code", "feature", "refactor",
				"integrate", "deploy", "release", "migrate", "wrote",
			},
			core.PhaseDebugging: {
				"bug", "debug", "fix", "issue", "error", "crash", "regression",
				"investigate", "troubleshoot", "hotfix", "broken",
			},
			core.PhaseResults: {
				"result", "metric", "launch", "shipped", "outcome", "retrospective",
				"success", "improvement", "milestone", "adoption", "growth",
			},
		},
		Themes: []Vocabulary{
			{Name: "architecture", Keywords: []string{"architecture", "design pattern", "microservice", "monolith", "system design"}},
			{Name: "performance", Keywords: []string{"performance", "latency", "throughput", "optimization", "slow", "speed up"}},
			{Name: "security", Keywords: []string{"security", "vulnerability", "auth", "encryption", "exploit", "permission"}},
			{Name: "user experience", Keywords: []string{"user experience", "usability", "ux", "interface", "onboarding"}},
			{Name: "automation", Keywords: []string{"automation", "pipeline", "ci/cd", "workflow", "scripted"}},
			{Name: "data", Keywords: []string{"data model", "analytics", "dataset", "etl", "migration"}},
			{Name: "testing", Keywords: []string{"testing", "test coverage", "unit test", "integration test", "qa"}},
			{Name: "scalability", Keywords: []string{"scalability", "scaling", "load", "capacity", "horizontal"}},
		},
		TechnicalElements: []Vocabulary{
			{Name: "api", Keywords: []string{"api", "endpoint", "rest", "graphql", "grpc"}},
			{Name: "database", Keywords: []string{"database", "sql", "postgres", "sqlite", "mongo", "index"}},
			{Name: "frontend", Keywords: []string{"frontend", "react", "vue", "css", "browser"}},
			{Name: "backend", Keywords: []string{"backend", "server", "service", "handler"}},
			{Name: "cloud", Keywords: []string{"cloud", "aws", "gcp", "azure", "s3", "lambda"}},
			{Name: "containers", Keywords: []string{"docker", "kubernetes", "container", "helm"}},
			{Name: "messaging", Keywords: []string{"queue", "kafka", "rabbitmq", "pubsub", "event"}},
			{Name: "caching", Keywords: []string{"cache", "redis", "memcache", "cdn"}},
			{Name: "auth", Keywords: []string{"oauth", "jwt", "session", "login", "token"}},
			{Name: "monitoring", Keywords: []string{"monitoring", "metrics", "alerting", "tracing", "logging"}},
			{Name: "ml", Keywords: []string{"machine learning", "model", "embedding", "llm", "inference"}},
			{Name: "infrastructure", Keywords: []string{"terraform", "infrastructure", "provisioning", "dns", "load balancer"}},
		},
		BusinessImpacts: []Vocabulary{
			{Name: "cost savings", Keywords: []string{"cost", "saving", "cheaper", "budget", "spend"}},
			{Name: "revenue", Keywords: []string{"revenue", "sales", "conversion", "monetization", "pricing"}},
			{Name: "efficiency", Keywords: []string{"efficiency", "productivity", "faster delivery", "time saved", "automated away"}},
			{Name: "customer satisfaction", Keywords: []string{"customer", "satisfaction", "retention", "churn", "feedback"}},
			{Name: "time to market", Keywords: []string{"time to market", "launch date", "deadline", "shipped early", "velocity"}},
			{Name: "reliability", Keywords: []string{"uptime", "reliability", "sla", "downtime", "stability"}},
		},
		ChallengeTriggers: []string{
			"problem", "issue", "challenge", "blocker", "struggle", "difficult",
			"failed", "stuck", "obstacle", "bottleneck",
		},
		SolutionTriggers: []string{
			"solved", "fixed", "resolved", "solution", "workaround", "implemented",
			"addressed", "overcame", "mitigated",
		},
		LearningKeywords: []string{
			"learned", "lesson", "insight", "takeaway", "realized", "in hindsight",
		},
		DepthIndicators: []string{
			"architecture", "trade-off", "scalability", "optimization",
		},
		ConnectionPatterns: map[core.ConnectionType][]string{
			core.ConnContinuation: {"next", "continue", "following", "then", "after that", "moving on"},
			core.ConnDependency:   {"depends", "required", "prerequisite", "based on", "built on", "needed"},
			core.ConnImprovement:  {"improved", "better", "optimized", "enhanced", "upgraded", "faster"},
			core.ConnComparison:   {"compared", "versus", "instead", "alternative", "rather than", "unlike"},
		},
		TechnicalThemes: map[string]bool{
			"architecture": true,
			"performance":  true,
			"security":     true,
			"automation":   true,
			"testing":      true,
			"scalability":  true,
			"data":         true,
		},
	}
}

// vocabularyOverrides is the on-disk shape of an optional overrides
// file. Only the sections present replace their built-in table.
type vocabularyOverrides struct {
	Themes            []Vocabulary `yaml:"themes"`
	TechnicalElements []Vocabulary `yaml:"technical_elements"`
	BusinessImpacts   []Vocabulary `yaml:"business_impacts"`
	TechnicalThemes   []string     `yaml:"technical_themes"`
}

// LoadOverrides applies a YAML overrides file on top of the built-in
// tables. A missing file is not an error.
func (p *PatternLibrary) LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var ov vocabularyOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return err
	}

	if len(ov.Themes) > 0 {
		p.Themes = ov.Themes
	}
	if len(ov.TechnicalElements) > 0 {
		p.TechnicalElements = ov.TechnicalElements
	}
	if len(ov.BusinessImpacts) > 0 {
		p.BusinessImpacts = ov.BusinessImpacts
	}
	if len(ov.TechnicalThemes) > 0 {
		p.TechnicalThemes = make(map[string]bool, len(ov.TechnicalThemes))
		for _, t := range ov.TechnicalThemes {
			p.TechnicalThemes[t] = true
		}
	}
	return nil
}
