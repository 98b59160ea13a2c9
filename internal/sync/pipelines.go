package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// PipelineSynchronizer fetches both deal pipelines and their stage
// definitions. Stages must land before deals so stage resolution works.
type PipelineSynchronizer struct {
	client     hubspot.Client
	purchaseID string
	salesID    string
	pipelines  crm.PipelineRepo
	ledger     syncstate.Repo
	log        *logger.Logger
}

func NewPipelineSynchronizer(
	client hubspot.Client,
	purchaseID, salesID string,
	pipelines crm.PipelineRepo,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *PipelineSynchronizer {
	return &PipelineSynchronizer{
		client:     client,
		purchaseID: purchaseID,
		salesID:    salesID,
		pipelines:  pipelines,
		ledger:     ledger,
		log:        baseLog.With("sync", types.EntityPipelines),
	}
}

func (s *PipelineSynchronizer) EntityType() string { return types.EntityPipelines }

func (s *PipelineSynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *PipelineSynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	for _, target := range []struct {
		hubspotID    string
		pipelineType string
	}{
		{s.purchaseID, types.PipelineTypePurchase},
		{s.salesID, types.PipelineTypeSales},
	} {
		n, err := s.syncOne(ctx, target.hubspotID, target.pipelineType)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *PipelineSynchronizer) syncOne(ctx context.Context, hubspotID, pipelineType string) (int, error) {
	src, err := s.client.GetPipeline(ctx, hubspotID)
	if err != nil {
		return 0, fmt.Errorf("fetch pipeline %s: %w", hubspotID, err)
	}

	row := &types.Pipeline{
		HubSpotID:    src.ID,
		Type:         pipelineType,
		Label:        src.Label,
		DisplayOrder: src.DisplayOrder,
	}
	saved, err := s.pipelines.UpsertPipeline(ctx, nil, row)
	if err != nil {
		return 0, fmt.Errorf("save pipeline %s: %w", hubspotID, err)
	}

	stages := make([]*types.PipelineStage, 0, len(src.Stages))
	for _, st := range src.Stages {
		stage := &types.PipelineStage{
			PipelineID:   saved.ID,
			HubSpotID:    st.ID,
			Label:        st.Label,
			DisplayOrder: st.DisplayOrder,
		}
		if raw, ok := st.Metadata["probability"]; ok {
			if prob, err := strconv.ParseFloat(raw, 64); err == nil {
				stage.Probability = &prob
			} else {
				s.log.Warn("unparseable stage probability", "pipeline", hubspotID, "stage", st.ID, "value", raw)
			}
		}
		stages = append(stages, stage)
	}

	n, err := s.pipelines.UpsertStages(ctx, nil, stages)
	if err != nil {
		return 0, fmt.Errorf("save stages for pipeline %s: %w", hubspotID, err)
	}
	return n + 1, nil
}
