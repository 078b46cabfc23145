// Command inat-lookup prints the IDs of iNaturalist places, projects, taxa or
// users whose name starts with the given text.
//
//	inat-lookup -p "Herps of Tex"
//	id=411, name="Herps of Texas"
//
// --type takes the resource name instead of a selector flag:
//
//	inat-lookup --type taxa Anura
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Sternrassler/inat-client/internal/config"
	"github.com/Sternrassler/inat-client/pkg/client"
	"github.com/Sternrassler/inat-client/pkg/logging"
	"github.com/Sternrassler/inat-client/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type lookupFlags struct {
	location bool
	project  bool
	taxon    bool
	user     bool
	typeName string
	verbose  bool
}

// resourceType maps the selected flag to the resource searched.
func (f lookupFlags) resourceType() (client.ResourceType, error) {
	switch {
	case f.typeName != "":
		return client.ParseResourceType(f.typeName)
	case f.location:
		return client.ResourcePlace, nil
	case f.project:
		return client.ResourceProject, nil
	case f.taxon:
		return client.ResourceTaxon, nil
	default:
		return client.ResourceUser, nil
	}
}

func typeNames() string {
	names := make([]string, 0, len(client.ResourceTypes()))
	for _, rt := range client.ResourceTypes() {
		names = append(names, string(rt))
	}
	return strings.Join(names, ", ")
}

func newRootCommand(out io.Writer) *cobra.Command {
	var flags lookupFlags
	v := config.New()

	cmd := &cobra.Command{
		Use:   "inat-lookup NAME",
		Short: "Lookup IDs on iNaturalist",
		Long: "Search iNaturalist for places, projects, taxa or users whose name starts with NAME\n" +
			"and print one line per match. Only the first page of matches is shown.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// usage is only useful for flag and argument errors
			cmd.SilenceUsage = true
			return runLookup(cmd.Context(), v, flags, args[0], out)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&flags.location, "location", "l", false, "search for a location (place) ID")
	fs.BoolVarP(&flags.project, "project", "p", false, "search for a project ID")
	fs.BoolVarP(&flags.taxon, "taxon", "t", false, "search for a taxon ID")
	fs.BoolVarP(&flags.user, "user", "u", false, "search for a user ID")
	fs.StringVar(&flags.typeName, "type", "", "resource type to search ("+typeNames()+")")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging to STDERR")
	cmd.MarkFlagsMutuallyExclusive("location", "project", "taxon", "user", "type")
	cmd.MarkFlagsOneRequired("location", "project", "taxon", "user", "type")

	if err := config.BindFlags(v, fs); err != nil {
		panic(err)
	}

	return cmd
}

func runLookup(ctx context.Context, v *viper.Viper, flags lookupFlags, name string, out io.Writer) error {
	rt, err := flags.resourceType()
	if err != nil {
		return err
	}

	settings, err := config.Load(v)
	if err != nil {
		return err
	}

	logging.Setup(logging.ForFlags(flags.verbose, settings.Metrics))
	logger := logging.NewLogger("inat-lookup")
	logger.Debug().Str("name", name).Str("type", string(rt)).Msg("Arguments")

	c, cleanup, err := settings.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resources, err := c.Lookup(ctx, rt, name)
	if err != nil {
		return err
	}

	for _, r := range resources {
		if _, err := fmt.Fprintf(out, "id=%d, name=\"%s\"\n", r.ID, r.Name); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	if settings.Metrics {
		logMetrics(logger)
	}
	return nil
}

func logMetrics(logger zerolog.Logger) {
	if err := metrics.LogSummary(logger, metrics.Gatherer); err != nil {
		logger.Warn().Err(err).Msg("Metrics summary failed")
	}
}
