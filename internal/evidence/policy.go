package evidence

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

const (
	policyProviderName      = "policy_search"
	defaultPolicyCollection = "fraud_policies"
	defaultPolicyResults    = 3
)

// PolicyConfig holds policy store configuration.
type PolicyConfig struct {
	// Path is the on-disk location of the vector DB. Empty means
	// in-memory, which is what tests use.
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
	MaxResults int    `koanf:"max_results"`
}

// PolicyDocument is one policy rule indexed for similarity search.
type PolicyDocument struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// PolicyProvider searches indexed fraud policies by vector similarity and
// surfaces matches as evidence. Result similarity becomes the evidence
// confidence.
type PolicyProvider struct {
	collection *chromem.Collection
	maxResults int
	logger     *zap.Logger
}

// NewPolicyProvider opens (or creates) the policy collection.
func NewPolicyProvider(cfg PolicyConfig, embed chromem.EmbeddingFunc, logger *zap.Logger) (*PolicyProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening policy db: %w", err)
		}
	}

	name := cfg.Collection
	if name == "" {
		name = defaultPolicyCollection
	}
	collection, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", name, err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultPolicyResults
	}

	return &PolicyProvider{
		collection: collection,
		maxResults: maxResults,
		logger:     logger,
	}, nil
}

// Name implements Provider.
func (p *PolicyProvider) Name() string { return policyProviderName }

// Index adds policy documents to the collection.
func (p *PolicyProvider) Index(ctx context.Context, docs []PolicyDocument) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		}
	}
	if err := p.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("indexing policies: %w", err)
	}
	p.logger.Debug("indexed policy documents", zap.Int("count", len(docs)))
	return nil
}

// Lookup implements Provider. An empty collection yields no evidence, not
// an error.
func (p *PolicyProvider) Lookup(ctx context.Context, req Request) ([]decision.EvidenceItem, error) {
	count := p.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := p.maxResults
	if n > count {
		n = count
	}

	query := req.Query
	if query == "" {
		query = fmt.Sprintf("%s transaction of %.2f %s in %s",
			req.Transaction.Category, req.Transaction.Amount,
			req.Transaction.Currency, req.Transaction.Country)
	}

	results, err := p.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("policy query: %w", err)
	}

	items := make([]decision.EvidenceItem, 0, len(results))
	for _, r := range results {
		items = append(items, decision.EvidenceItem{
			Source:     policyProviderName,
			Confidence: decision.ClampConfidence(float64(r.Similarity)),
			Detail: map[string]any{
				"policy_id": r.ID,
				"excerpt":   r.Content,
			},
		})
	}
	return items, nil
}

var _ Provider = (*PolicyProvider)(nil)
