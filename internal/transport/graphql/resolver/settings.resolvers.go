package resolver

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.86

import (
	"context"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/settings"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/model"
)

// UpdateFollowUpSettings is the resolver for the updateFollowUpSettings field.
func (r *mutationResolver) UpdateFollowUpSettings(ctx context.Context, input model.UpdateFollowUpSettingsInput) (*domain.Settings, error) {
	s, err := r.settings.Update(ctx, settings.UpdateInput{
		FollowUpOptions: input.FollowUpOptions,
		DefaultFollowUp: input.DefaultFollowUp,
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FollowUpSettings is the resolver for the followUpSettings field.
func (r *queryResolver) FollowUpSettings(ctx context.Context) (*domain.Settings, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	s := r.settings.Get()
	return &s, nil
}
