// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/logger"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("review.directory", "")
	viper.SetDefault("review.rows", 2)
	viper.SetDefault("review.columns", 5)
	viper.SetDefault("review.category", dataset.CategoryTagged.Label())

	viper.SetDefault("dataset.datafile", dataset.DefaultDataFile)
	viper.SetDefault("dataset.taggeddir", dataset.DefaultTaggedDir)
	viper.SetDefault("dataset.untaggeddir", dataset.DefaultUntaggedDir)
	viper.SetDefault("dataset.videoext", dataset.DefaultVideoExt)

	viper.SetDefault("webserver.listen", "127.0.0.1:8080")

	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.driver", "sqlite")
	viper.SetDefault("journal.path", "dancereview.db")
	viper.SetDefault("journal.mysql.host", "localhost")
	viper.SetDefault("journal.mysql.port", "3306")
	viper.SetDefault("journal.mysql.username", "")
	viper.SetDefault("journal.mysql.password", "")
	viper.SetDefault("journal.mysql.database", "dancereview")

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")
	viper.SetDefault("telemetry.environment", "production")
}
