package miner

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/zap"
)

//SysInfo describes the host the miner hashes on
type SysInfo struct {
	Brand         string   `json:"brand"`
	PhysicalCores int      `json:"physicalcores"`
	LogicalCores  int      `json:"logicalcores"`
	CacheL2       int      `json:"cachel2"`
	Features      []string `json:"features"`
	GoArch        string   `json:"goarch"`
}

//hashFeatures are the instruction sets relevant to salsa and sha256
var hashFeatures = []struct {
	name string
	id   cpuid.FeatureID
}{
	{"SSE2", cpuid.SSE2},
	{"SSE4.1", cpuid.SSE4},
	{"AVX", cpuid.AVX},
	{"AVX2", cpuid.AVX2},
	{"AVX512F", cpuid.AVX512F},
	{"SHA", cpuid.SHA},
}

//CPUFeatures lists the hashing related instruction sets the cpu supports
func CPUFeatures() (features []string) {
	for _, f := range hashFeatures {
		if cpuid.CPU.Supports(f.id) {
			features = append(features, f.name)
		}
	}
	return
}

func GetSysInfo() SysInfo {
	return SysInfo{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  runtime.NumCPU(),
		CacheL2:       cpuid.CPU.Cache.L2,
		Features:      CPUFeatures(),
		GoArch:        runtime.GOARCH,
	}
}

func logSysInfo(logger *zap.Logger) {
	info := GetSysInfo()
	logger.Info("SysInfo",
		zap.String("Brand", info.Brand),
		zap.Int("PhysicalCores", info.PhysicalCores),
		zap.Int("LogicalCores", info.LogicalCores),
		zap.Strings("Features", info.Features),
	)
}
