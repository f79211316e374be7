package build_info

// Overwritten at build time with -ldflags "-X github.com/magicpot/indexer/src/utils/build_info.Version=..."
var Version = "dev"
