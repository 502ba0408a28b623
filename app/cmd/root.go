package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	appDesc    = "a tiny non-blocking UDP datagram tool"
	appAuthors = "Aperture Internet Laboratory <https://github.com/apernet>"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

var (
	// These values will be injected by the build system
	appVersion = "Unknown"
	appDate    = "Unknown"
	appCommit  = "Unknown"

	appVersionLong = fmt.Sprintf("Version:\t%s\nBuildDate:\t%s\nCommitHash:\t%s", appVersion, appDate, appCommit)
)

var logger *zap.Logger

// Flags
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "udpsock",
	Short: appDesc,
	Long:  fmt.Sprintf("udpsock - %s\n%s\n\n%s", appDesc, appAuthors, appVersionLong),
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initFlags()
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLogger) // initLogger must come after initConfig as it depends on config
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", envOrDefaultString("log.level", defaultLogLevel), "log level")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", envOrDefaultString("log.format", defaultLogFormat), "log format (console/json)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/udpsock/")
		viper.AddConfigPath("$HOME/.udpsock")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("UDPSOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindConfigEnv()
}

// bindPortFlag binds the running command's --port flag to the shared "port"
// config key. echo and send each define the flag, so it is bound on PreRun.
func bindPortFlag(cmd *cobra.Command, args []string) {
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))
}

func initLogger() {
	l, err := newLogger(logLevel, logFormat)
	if err != nil {
		fmt.Printf("failed to initialize logger: %s\n", err)
		os.Exit(1)
	}
	logger = l
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, configError{Field: "log-level", Err: err}
	}
	var c zap.Config
	switch strings.ToLower(format) {
	case "console":
		c = zap.NewDevelopmentConfig()
		c.DisableStacktrace = true
	case "json":
		c = zap.NewProductionConfig()
	default:
		return nil, configError{Field: "log-format", Err: fmt.Errorf("unsupported format %q", format)}
	}
	c.Level = lvl
	c.DisableCaller = true
	return c.Build()
}

// envOrDefaultString reads the UDPSOCK_-prefixed environment variable for key,
// before viper is set up, so that it can serve as a flag default.
func envOrDefaultString(key, def string) string {
	env := "UDPSOCK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return def
}
