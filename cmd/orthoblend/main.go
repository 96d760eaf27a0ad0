// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command orthoblend stitches a directory of georeferenced TIFF tiles
// into one seamless orthomosaic.
package main

import (
	"fmt"
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/shiena/ansicolor"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mercurioimaging/Retawny"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orthoblend <input-dir> <output.tif>",
	Short: "Blend georeferenced tiles into one orthomosaic",
	Long: `orthoblend reads a directory of TIFF tiles with accompanying .tfw
world-files, derives per-tile Voronoi ownership masks, and feeds every tile
through a dual-mask multi-band Laplacian-pyramid blender to produce one
seamless composite.`,
	Args: cobra.ExactArgs(2),
	RunE: runBlend,
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.orthoblend.yaml)")

	rootCmd.Flags().Int("num-bands", 14, "pyramid depth, 0-50 (0 degenerates to direct weighted blending)")
	rootCmd.Flags().Float64("feather-radius", 512, "validity-mask feather radius in pixels (<=1 disables feathering)")
	rootCmd.Flags().Int("overlap-margin", 20, "Voronoi seam-band half-width in pixels")
	rootCmd.Flags().Bool("use-voronoi", true, "generate and use Voronoi blend masks")
	rootCmd.Flags().Bool("int16-weights", false, "use int16 weight accumulators instead of float32")
	rootCmd.Flags().Bool("debug", false, "emit per-tile W/B masks, a preview PNG, and a run manifest")
	rootCmd.Flags().String("debug-dir", "", "directory for the debug preview PNG and run manifest (default: output file's directory)")
	rootCmd.Flags().Bool("verbose", false, "log per-tile progress during the Voronoi and feed stages")

	_ = viper.BindPFlag("num-bands", rootCmd.Flags().Lookup("num-bands"))
	_ = viper.BindPFlag("feather-radius", rootCmd.Flags().Lookup("feather-radius"))
	_ = viper.BindPFlag("overlap-margin", rootCmd.Flags().Lookup("overlap-margin"))
	_ = viper.BindPFlag("use-voronoi", rootCmd.Flags().Lookup("use-voronoi"))
	_ = viper.BindPFlag("int16-weights", rootCmd.Flags().Lookup("int16-weights"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))
	_ = viper.BindPFlag("debug-dir", rootCmd.Flags().Lookup("debug-dir"))
	_ = viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
}

func initLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(os.Stderr)))
	log.SetLevel(log.InfoLevel)
}

func initConfig() {
	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err == nil {
			cfgFile = expanded
		}
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".orthoblend")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func runBlend(cmd *cobra.Command, args []string) error {
	inputDir, err := homedir.Expand(args[0])
	if err != nil {
		return fmt.Errorf("expanding input directory: %w", err)
	}
	outputPath, err := homedir.Expand(args[1])
	if err != nil {
		return fmt.Errorf("expanding output path: %w", err)
	}

	weightType := retawny.WeightFloat32
	if viper.GetBool("int16-weights") {
		weightType = retawny.WeightInt16
	}

	cfg := retawny.Config{
		NumBands:      viper.GetInt("num-bands"),
		FeatherRadius: viper.GetFloat64("feather-radius"),
		OverlapMargin: viper.GetInt("overlap-margin"),
		UseVoronoi:    viper.GetBool("use-voronoi"),
		WeightType:    weightType,
		Debug:         viper.GetBool("debug"),
	}

	pipeline := retawny.Pipeline{
		Config:   cfg,
		DebugDir: viper.GetString("debug-dir"),
		Verbose:  viper.GetBool("verbose"),
	}

	report, err := pipeline.Run(inputDir, outputPath)
	if err != nil {
		if kind, ok := retawny.KindOf(err); ok {
			log.WithField("kind", kind).Error(err)
		} else {
			log.Error(err)
		}
		return err
	}

	log.WithFields(log.Fields{
		"tiles":         report.TileCount,
		"canvas":        fmt.Sprintf("%dx%d", report.CanvasWidth, report.CanvasHeight),
		"peak_mem_mb":   report.PeakMemoryBytes / (1024 * 1024),
		"output":        outputPath,
		"elapsed":       report.FinishedAt.Sub(report.StartedAt),
	}).Info("orthomosaic blend complete")

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
