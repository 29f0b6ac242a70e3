package agentctx

import (
	"context"
	"strings"

	"github.com/continuum-dev/continuum/internal/errors"
	"github.com/continuum-dev/continuum/internal/model"
)

const entityContextDecisionLimit = 20

// entityTypesByLikelihood is the order EntityContext tries resolving
// name against, since the route takes a bare name with no type hint.
var entityTypesByLikelihood = []model.EntityType{
	model.EntityTechnology, model.EntityConcept, model.EntityPattern,
	model.EntitySystem, model.EntityPerson, model.EntityOrganization,
}

// EntityContextResponse is `/api/agent/context/{name}`'s payload:
// everything known about one entity, per spec.md section 6.
type EntityContextResponse struct {
	Entity    *model.Entity     `json:"entity"`
	Decisions []*model.Decision `json:"decisions"`
}

// EntityContext implements `/api/agent/context/{name}`: resolves name
// to its canonical entity the same way a mention is resolved during
// Remember, then returns every decision that involves it, newest first.
func (s *Service) EntityContext(ctx context.Context, userID, name string) (*EntityContextResponse, error) {
	normalized := normalizeEntityName(name)
	for _, t := range entityTypesByLikelihood {
		entity, err := s.store.FindByExactName(ctx, userID, t, normalized)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			continue
		}
		decisions, err := s.store.DecisionsInvolvingEntity(ctx, userID, entity.ID, entityContextDecisionLimit)
		if err != nil {
			return nil, err
		}
		return &EntityContextResponse{Entity: entity, Decisions: decisions}, nil
	}
	return nil, errors.NotFoundf("agentctx: no entity named %q", name)
}

func normalizeEntityName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
