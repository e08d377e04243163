package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"httper-cli/parser"
	"httper-cli/runtime"
)

var rootCmd = &cobra.Command{
	Use:          "httper [file]",
	Short:        "Executes the HTTP requests described in a plain-text request file",
	Args:         cobra.ExactArgs(1),
	RunE:         execute,
	SilenceUsage: true,
}

func main() {
	f := rootCmd.Flags()
	f.BoolP("verbose", "v", false, "print verbose request and response output")
	f.StringP("output", "o", "", "output file for the response body")
	f.BoolP("insecure", "k", false, "skip TLS certificate verification")
	f.DurationP("timeout", "t", 30*time.Second, "timeout for each request")
	f.Bool("json", false, "print the collected responses as JSON")

	if err := viper.BindPFlags(f); err != nil {
		panic(err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func execute(_ *cobra.Command, args []string) error {
	if err := runtime.ReadConfig(viper.GetViper()); err != nil {
		return err
	}

	requests, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}

	client := runtime.New(runtime.Options{
		Timeout:  viper.GetDuration("timeout"),
		Insecure: viper.GetBool("insecure"),
		Verbose:  viper.GetBool("verbose"),
		Output:   viper.GetString("output"),
	})

	built, err := client.Assemble(requests)
	if err != nil {
		return err
	}

	responses, err := client.Do(built)
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(responses)
	}

	return nil
}
