package runtime

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ConfigFileName is the basename of the optional client defaults file
// (httper.yaml, httper.json, ...) looked up in the working directory and
// the user's home directory.
const ConfigFileName = "httper"

// ReadConfig merges the defaults file into v, if one exists. Flags the user
// set explicitly still win through viper's usual precedence. Recognized
// keys match the flag names: timeout, insecure, verbose, output, json.
func ReadConfig(v *viper.Viper) error {
	v.SetConfigName(ConfigFileName)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(err, "reading config file")
	}
	return nil
}
