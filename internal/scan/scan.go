package scan

import (
	"context"
	"fmt"
	"gossip_scan/internal/cluster"
	"gossip_scan/internal/compliance"
	"gossip_scan/internal/config"
	"gossip_scan/internal/dataType"
	"gossip_scan/internal/geo"
	"gossip_scan/internal/report"
	"gossip_scan/internal/utils"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Run executes one scan: list the gossip view, sample it, geolocate the
// sample one IP at a time, classify, then persist history and summary.
// A returned error is fatal and maps to a non-zero exit; individual
// lookup failures only shrink the resolved denominator.
func Run(cfg *config.MainConfig) (dataType.SummaryReport, error) {
	runID := uuid.New().String()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	skip, err := config.LoadSkipRanges(cfg.SkipRanges)
	if err != nil {
		return dataType.SummaryReport{}, err
	}

	client := cluster.NewClient(cfg.RPCURL, cfg.Timeout, skip)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	nodes, err := client.ListNodes(ctx)
	cancel()
	if err != nil {
		return dataType.SummaryReport{}, err
	}
	utils.LogInfo("scan", fmt.Sprintf("run %s: %d active nodes in gossip view", runID, len(nodes)))

	sampled := cluster.SampleNodes(rng, nodes, cfg.SampleSize)
	utils.LogInfo("scan", fmt.Sprintf("run %s: sampling %d nodes", runID, len(sampled)))

	resolver := geo.NewResolver(geo.Options{
		BaseURL:    cfg.GeoAPIURL,
		Timeout:    cfg.Timeout,
		Delay:      cfg.Delay,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
	}, rng)

	classifier := compliance.NewClassifier(cfg.RestrictedCountries)
	records := make([]dataType.ScanRecord, 0, len(sampled))

	for i, node := range sampled {
		if i > 0 {
			resolver.Pace()
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		res, err := resolver.Resolve(ctx, node.GossipIP)
		cancel()
		if err != nil {
			// Recoverable: the node drops out of the resolved set.
			utils.LogDebug("geo", err.Error())
			continue
		}

		restricted := classifier.Observe(res)
		if restricted {
			utils.LogInfo("compliance", fmt.Sprintf("run %s: node %s (%s, version %s) resolved to restricted jurisdiction %s",
				runID, node.PubKey, node.GossipIP, node.Version, res.CountryCode))
		}

		records = append(records, dataType.ScanRecord{
			Timestamp:   time.Now(),
			IP:          res.IP,
			CountryCode: res.CountryCode,
			PubKey:      node.PubKey,
		})
	}

	summary := classifier.Summary(runID, time.Now(), len(sampled))
	if summary.TotalResolved == 0 && len(sampled) > 0 {
		utils.LogError("scan", fmt.Sprintf("run %s: no lookups succeeded, compliance is %s", runID, summary.CompliancePercent))
	}

	if err := report.AppendHistory(cfg.HistoryPath, records); err != nil {
		return summary, err
	}
	if err := report.WriteSummary(cfg.SummaryPath, summary); err != nil {
		return summary, err
	}

	return summary, nil
}
