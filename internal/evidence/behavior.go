package evidence

import (
	"context"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

const behaviorProviderName = "behavioral_lookup"

// BehaviorProvider derives evidence from the customer's own history: an
// unknown device or unusual country for this customer is evidence in
// itself, independent of any external source.
type BehaviorProvider struct{}

// NewBehaviorProvider creates the provider.
func NewBehaviorProvider() *BehaviorProvider {
	return &BehaviorProvider{}
}

// Name implements Provider.
func (p *BehaviorProvider) Name() string { return behaviorProviderName }

// Lookup implements Provider. It is deterministic and cannot fail; it
// returns no items when the transaction matches the profile.
func (p *BehaviorProvider) Lookup(ctx context.Context, req Request) ([]decision.EvidenceItem, error) {
	profile := req.Profile
	tx := req.Transaction

	var items []decision.EvidenceItem
	if tx.DeviceID != "" && !profile.UsesKnownDevice(tx.DeviceID) {
		items = append(items, decision.EvidenceItem{
			Source:     behaviorProviderName,
			Confidence: 0.7,
			Detail: map[string]any{
				"kind":      "unknown_device",
				"device_id": tx.DeviceID,
			},
		})
	}
	if tx.Country != "" && len(profile.UsualCountries) > 0 && !profile.InUsualCountry(tx.Country) {
		items = append(items, decision.EvidenceItem{
			Source:     behaviorProviderName,
			Confidence: 0.6,
			Detail: map[string]any{
				"kind":    "unusual_country",
				"country": tx.Country,
			},
		})
	}
	return items, nil
}

var _ Provider = (*BehaviorProvider)(nil)
