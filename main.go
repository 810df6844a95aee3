package main

import (
	"flag"
	"gossip_scan/internal/config"
	"gossip_scan/internal/scan"
	"gossip_scan/internal/utils"
	"log"
)

func main() {
	var basePath string
	flag.StringVar(&basePath, "prefix", "", "Config file base path")
	flag.Parse()

	// Load MainConfig
	cfg, err := config.LoadMainConfig(basePath)
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	utils.Setup(cfg.LogPath)

	log.Printf("Starting gossip scan: rpc=%s sample_size=%d", cfg.RPCURL, cfg.SampleSize)

	summary, err := scan.Run(cfg)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	log.Printf("Scan %s complete: sampled=%d resolved=%d restricted=%d compliance=%s",
		summary.RunID, summary.TotalSampled, summary.TotalResolved,
		summary.RestrictedCount, summary.CompliancePercent)
}
