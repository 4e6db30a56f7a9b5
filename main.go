////////////////////////////////////////////////////////////////////////////
// Program: veriminer
// Purpose: CPU miner for memory hard scrypt jobs, configured via cobra & viper
////////////////////////////////////////////////////////////////////////////

////////////////////////////////////////////////////////////////////////////
// Program start

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrellsystems/VeriMiner/algorithms/scryptn"
	"github.com/kestrellsystems/VeriMiner/miner"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

////////////////////////////////////////////////////////////////////////////
// Constant and data type/structure definitions

const (
	version    = "0.2.0"
	defaultCfg = "veriminer.json"
)

// The main command mines with the configured pools.
var mainCmd = &cobra.Command{
	Use:   "veriminer",
	Short: "CPU miner for scrypt jobs",
	Long:  `CPU miner for scrypt jobs pushed by a local coordinator`,
	Run: func(cmd *cobra.Command, args []string) {
		mine()
	},
}

// The version command prints this service.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure the single core hash rate at the configured cost.",
	Run: func(cmd *cobra.Command, args []string) {
		bench()
	},
}

var mainminer = &miner.Miner{}

// Go special automatically executed init function
func init() {
	setDefaults()

	mainCmd.AddCommand(versionCmd, benchCmd)
	flags := mainCmd.PersistentFlags()
	flags.String("cfg", defaultCfg, "config file path")
	flags.Int("workers", 0, "hashing goroutines, 0 uses every cpu")
	flags.String("debug", "info", "log level: debug, info or error")
	benchCmd.Flags().Int("hashes", 8, "number of hashes to compute")
	bindFlags(flags)
	bindFlags(benchCmd.Flags())

	cobra.OnInitialize(readConfig)
}

func setDefaults() {
	viper.SetDefault("workers", 0)
	viper.SetDefault("cost", scryptn.N)
	viper.SetDefault("polldelay", "500ms")
	viper.SetDefault("debug", "info")
	viper.SetDefault("api-listen", ":1234")
}

func bindFlags(flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		log.Print("Binding flags: ", err)
	}
}

// Viper supports reading from yaml, toml and/or json files. Viper can
// search multiple paths. Paths will be searched in the order they are
// provided. Searches stopped once Config File found.
func readConfig() {
	fullcfgname := viper.GetString("cfg")
	log.Print("Config file: ", fullcfgname)
	if fullcfgname != defaultCfg {
		viper.SetConfigFile(fullcfgname)
	} else {
		viper.SetConfigName(strings.TrimSuffix(fullcfgname, filepath.Ext(fullcfgname)))
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/veriminer")
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Print("No config file found. Using built-in defaults.")
		return
	}

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Print("Config file changed: ", e.Name)
		var cfg miner.Config
		if err := decodeConfig(&cfg); err != nil {
			log.Print("Ignoring config change: ", err)
			return
		}
		if err := mainminer.Apply(cfg); err != nil {
			log.Print("Reload failed: ", err)
		}
	})
}

func decodeConfig(cfg *miner.Config) error {
	return viper.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
}

////////////////////////////////////////////////////////////////////////////
// Main

func main() {
	if err := mainCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

////////////////////////////////////////////////////////////////////////////
// Function definitions
func mine() {
	if err := decodeConfig(&mainminer.Config); err != nil {
		log.Fatal("Config: ", err)
	}
	mainminer.MinerMain()
}

func bench() {
	info := miner.GetSysInfo()
	fmt.Printf("%s, %d logical cores, features %s\n", info.Brand, info.LogicalCores, strings.Join(info.Features, " "))
	res := miner.Bench(viper.GetInt("cost"), viper.GetInt("hashes"))
	fmt.Printf("cost %d: %d hashes in %v, %.2f H/s per core\n", res.Cost, res.Hashes, res.Elapsed, res.Hashrate)
}
