package events

import (
	"context"
	"fmt"
	"strconv"

	"github.com/getmentor/getmentor-escrow/internal/models"
)

// ObjectStore writes JSON documents
type ObjectStore interface {
	PutJSON(ctx context.Context, key string, doc any) (string, error)
}

// AchievementMetadata is the public token metadata document of an achievement
type AchievementMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataSink publishes a metadata document for every minted achievement
type MetadataSink struct {
	store ObjectStore
}

func NewMetadataSink(store ObjectStore) *MetadataSink {
	return &MetadataSink{store: store}
}

// MetadataKey is the object key of an achievement's metadata
func MetadataKey(registry models.Address, tokenID uint64) string {
	return fmt.Sprintf("achievements/%s/%d.json", registry, tokenID)
}

func (s *MetadataSink) Name() string { return "metadata" }

func (s *MetadataSink) Accepts(name models.EventName) bool {
	return name == models.EventAchievementMinted
}

func (s *MetadataSink) Deliver(ctx context.Context, env Envelope) error {
	p, ok := env.Payload.(models.AchievementMintedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", env.Payload, env.Name)
	}

	doc := AchievementMetadata{
		Name:        p.Title,
		Description: p.Description,
		Attributes: []MetadataAttribute{
			{TraitType: "session", Value: strconv.FormatUint(p.SessionID, 10)},
			{TraitType: "mentor", Value: p.Mentor.String()},
			{TraitType: "student", Value: p.Student.String()},
			{TraitType: "issued", Value: p.Timestamp.UTC().Format("2006-01-02")},
		},
	}
	_, err := s.store.PutJSON(ctx, MetadataKey(p.Registry, p.TokenID), doc)
	return err
}
