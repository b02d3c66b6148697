package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	zonesync "zonesync/src"
)

var _version_ string

func main() {
	versionFlag := flag.Bool("v", false, "Show version.")
	configPathFlag := flag.String("c", "", "Config path.")
	formatFlag := flag.String("format", "", "Zone file format, yaml or json. Default: by file extension.")
	dryRunFlag := flag.Bool("dry-run", false, "Print the change plan without applying it.")
	upsertFlag := flag.Bool("use-upsert", false, "Converge changed records with upserts instead of delete+create.")
	maxOpsFlag := flag.Int("max-batch-ops", zonesync.DefaultMaxBatchOps, "Maximum changes per batch.")
	maxBytesFlag := flag.Int("max-batch-bytes", zonesync.DefaultMaxBatchBytes, "Maximum estimated payload bytes per batch.")
	flag.Parse()
	if *versionFlag {
		fmt.Printf("Git commit id: %s.\n", _version_)
		os.Exit(0)
	}
	options := zonesync.Options{
		ConfigPath:    *configPathFlag,
		Format:        *formatFlag,
		DryRun:        *dryRunFlag,
		Upsert:        *upsertFlag,
		MaxBatchOps:   *maxOpsFlag,
		MaxBatchBytes: *maxBytesFlag,
	}
	if err := zonesync.Do(options, flag.Args()); err != nil {
		log.Fatal(err)
	}
}
