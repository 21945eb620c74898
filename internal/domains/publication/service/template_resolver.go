package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/domains/publication/repository"
)

// TemplateResolver decides which template blocks a snapshot is built from
// and records why. Precedence (fixed policy, first applicable rule wins):
//
//  1. preferred template with a variation for this channel
//  2. preferred template, first variation
//  3. channel default template
//  4. project has templates but none applies: built-in default blocks
//  5. project has no templates at all: built-in default blocks
//
// Rules 4 and 5 produce the same blocks but different provenance, which is
// the difference between "misconfigured" and "never configured" when
// debugging a wrong-template incident.
type TemplateResolver struct {
	templates repository.TemplateRepository
}

func NewTemplateResolver(templates repository.TemplateRepository) *TemplateResolver {
	return &TemplateResolver{templates: templates}
}

// Resolve never silently defaults: the result always carries the rule that
// selected the blocks.
func (r *TemplateResolver) Resolve(
	ctx context.Context,
	projectID uuid.UUID,
	channel *channelModel.Channel,
	preferredTemplateID *uuid.UUID,
	manualOverride bool,
) (*model.TemplateResolutionResult, error) {
	if preferredTemplateID != nil {
		result, err := r.resolvePreferred(ctx, *preferredTemplateID, channel, manualOverride)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	if channel.DefaultTemplateID != nil {
		tpl, err := r.templates.GetByID(ctx, *channel.DefaultTemplateID)
		if err != nil && !errors.Is(err, model.ErrTemplateNotFound) {
			return nil, fmt.Errorf("resolve channel default template: %w", err)
		}
		if tpl != nil && len(tpl.Blocks) > 0 {
			return &model.TemplateResolutionResult{
				TemplateID:     &tpl.ID,
				Blocks:         tpl.Blocks,
				Resolution:     model.ResolutionChannelDefault,
				ManualOverride: manualOverride,
			}, nil
		}
	}

	count, err := r.templates.CountByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("count project templates: %w", err)
	}

	resolution := model.ResolutionMissingProjectTemplateFallback
	if count > 0 {
		resolution = model.ResolutionFallbackDefaultBlocks
	}

	return &model.TemplateResolutionResult{
		Blocks:         model.DefaultBlocks,
		Resolution:     resolution,
		ManualOverride: manualOverride,
	}, nil
}

// resolvePreferred returns nil (no error) when the preferred template cannot
// serve, letting resolution fall through to the next rule.
func (r *TemplateResolver) resolvePreferred(
	ctx context.Context,
	templateID uuid.UUID,
	channel *channelModel.Channel,
	manualOverride bool,
) (*model.TemplateResolutionResult, error) {
	tpl, err := r.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, model.ErrTemplateNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve preferred template: %w", err)
	}

	variations, err := r.templates.ListVariations(ctx, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("list preferred template variations: %w", err)
	}

	for _, v := range variations {
		if v.ChannelID != nil && *v.ChannelID == channel.ID {
			return &model.TemplateResolutionResult{
				TemplateID:     &tpl.ID,
				VariationID:    &v.ID,
				Blocks:         v.Blocks,
				Resolution:     model.ResolutionPreferredTemplateChannelDefault,
				ManualOverride: manualOverride,
			}, nil
		}
	}

	if len(variations) > 0 {
		v := variations[0]
		return &model.TemplateResolutionResult{
			TemplateID:     &tpl.ID,
			VariationID:    &v.ID,
			Blocks:         v.Blocks,
			Resolution:     model.ResolutionPreferredTemplateFirstVariation,
			ManualOverride: manualOverride,
		}, nil
	}

	if len(tpl.Blocks) > 0 {
		return &model.TemplateResolutionResult{
			TemplateID:     &tpl.ID,
			Blocks:         tpl.Blocks,
			Resolution:     model.ResolutionPreferredTemplateChannelDefault,
			ManualOverride: manualOverride,
		}, nil
	}

	return nil, nil
}
