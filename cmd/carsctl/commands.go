package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/car-listing/internal/config"
	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/logging"
	"github.com/sakif/car-listing/internal/normalize"
	"github.com/sakif/car-listing/internal/notify"
	"github.com/sakif/car-listing/internal/render"
	"github.com/sakif/car-listing/internal/repository/httpapi"
	"github.com/sakif/car-listing/internal/service"
	"github.com/sakif/car-listing/internal/tui"
)

// errReported means the failure was already printed to stderr.
var errReported = errors.New("operation failed")

// app carries the global flags and the client built from them.
type app struct {
	apiURL     string
	configPath string
	logLevel   string

	out    io.Writer
	errOut io.Writer
	in     io.Reader

	client *service.Client
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "carsctl",
		Short: "Browse and manage car listings from the terminal",
		Long: `carsctl talks to the cars REST API.

Examples:
  carsctl list --make Toyota --sort price-asc
  carsctl add --make Honda --model Civic --year 2020 --price 21000 --mileage 30000 --image civic.jpg
  carsctl edit 7 --price 19500
  carsctl delete 7 --yes
  carsctl tui`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.client != nil {
				a.client.Close()
			}
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetIn(a.in)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "cars API collection URL (overrides config)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newTUICmd(a),
	)
	return root
}

// setup loads config and builds the client every subcommand uses.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return errReported
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}

	// The TUI owns the terminal; log lines would tear through it.
	logOut := a.errOut
	if cmd.Name() == "tui" {
		logOut = io.Discard
	}
	logger, err := logging.New(a.logLevel, cfg.Log.Format, logOut)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return errReported
	}

	repo := httpapi.New(cfg.API.BaseURL, httpapi.WithLogger(logger), httpapi.WithTimeout(cfg.API.Timeout))
	a.client = service.NewClient(repo, notify.New(), logger)
	return nil
}

// report prints the banner after an operation. An error banner, or an error
// with nothing on the banner, fails the command.
func (a *app) report(err error) error {
	n := a.client.Notifier().Current()
	switch {
	case n.State == notify.ShowingError:
		fmt.Fprintln(a.errOut, n.Message)
		return errReported
	case err != nil:
		fmt.Fprintln(a.errOut, err)
		return errReported
	case n.State == notify.ShowingSuccess:
		fmt.Fprintln(a.out, n.Message)
	}
	return nil
}

func (a *app) styles() render.Styles {
	if f, ok := a.out.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return render.DefaultStyles()
		}
	}
	return render.PlainStyles()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid car id %q", s)
	}
	return id, nil
}

// =========================================================================
// list / get
// =========================================================================

func newListCmd(a *app) *cobra.Command {
	var raw listing.Selection
	var sortKey string
	var html bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cars, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := listSelection(raw, sortKey)
			if err != nil {
				fmt.Fprintln(a.errOut, err)
				return errReported
			}
			if err := a.client.LoadCars(cmd.Context()); err != nil {
				return a.report(err)
			}

			// Flags are free text, so they are matched as typed (after the
			// same canonicalisation saved records get) rather than dropped
			// when no record carries them.
			cars := a.client.Filter(sel)
			if html {
				fmt.Fprintln(a.out, render.CardsHTML(cars))
				return nil
			}
			fmt.Fprintln(a.out, render.TextCards(cars, a.styles(), -1))
			return nil
		},
	}
	cmd.Flags().StringVar(&raw.Make, "make", "", "only this make")
	cmd.Flags().StringVar(&raw.Model, "model", "", "only this model")
	cmd.Flags().StringVar(&raw.Color, "color", "", "only this color")
	cmd.Flags().StringVar(&sortKey, "sort", "", "price-asc, price-desc, year-asc, year-desc, mileage-asc or mileage-desc")
	cmd.Flags().BoolVar(&html, "html", false, "print the cards as an HTML fragment")
	return cmd
}

// listSelection canonicalises the filter flags and rejects an unknown sort.
func listSelection(raw listing.Selection, sortKey string) (listing.Selection, error) {
	sel := listing.Selection{
		Make:  normalize.Text(raw.Make),
		Model: normalize.Text(raw.Model),
		Color: normalize.Text(raw.Color),
		Sort:  listing.ParseSortKey(sortKey),
	}
	if sortKey != "" && sel.Sort == listing.SortNone {
		return listing.Selection{}, fmt.Errorf("unknown sort %q", sortKey)
	}
	return sel, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show every detail of one car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				fmt.Fprintln(a.errOut, err)
				return errReported
			}
			if err := a.client.ViewDetails(cmd.Context(), id); err != nil {
				return a.report(err)
			}
			fmt.Fprintln(a.out, render.TextDetail(*a.client.Snapshot().Detail, a.styles()))
			return nil
		},
	}
}

// =========================================================================
// add / edit
// =========================================================================

// fieldFlags binds one flag per form input.
type fieldFlags struct {
	fields form.Fields
	image  string
}

func (f *fieldFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.fields.Make, "make", "", "make, e.g. Toyota")
	fl.StringVar(&f.fields.Model, "model", "", "model, e.g. Corolla")
	fl.StringVar(&f.fields.Year, "year", "", "model year")
	fl.StringVar(&f.fields.Price, "price", "", "price")
	fl.StringVar(&f.fields.Mileage, "mileage", "", "mileage in km")
	fl.StringVar(&f.fields.Color, "color", "", "color")
	fl.StringVar(&f.fields.VIN, "vin", "", "vehicle identification number")
	fl.StringVar(&f.image, "image", "", "image file to attach (max 5MB)")
}

// overlay copies only the flags the user actually set onto base.
func (f *fieldFlags) overlay(cmd *cobra.Command, base form.Fields) form.Fields {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("make", &base.Make, f.fields.Make)
	set("model", &base.Model, f.fields.Model)
	set("year", &base.Year, f.fields.Year)
	set("price", &base.Price, f.fields.Price)
	set("mileage", &base.Mileage, f.fields.Mileage)
	set("color", &base.Color, f.fields.Color)
	set("vin", &base.VIN, f.fields.VIN)
	return base
}

func newAddCmd(a *app) *cobra.Command {
	var ff fieldFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new car listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.client.UpdateFields(ff.fields)
			if ff.image != "" {
				if err := a.client.AttachImageFile(ff.image); err != nil {
					return a.report(err)
				}
			}
			return a.report(a.client.Submit(cmd.Context()))
		},
	}
	ff.bind(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var ff fieldFlags
	var clearImage bool
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change some fields of a car listing",
		Long: `edit loads the listing first, so every field keeps its current value
unless a flag replaces it. The current image is kept unless --image or
--clear-image is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				fmt.Fprintln(a.errOut, err)
				return errReported
			}
			if err := a.client.StartEdit(cmd.Context(), id); err != nil {
				return a.report(err)
			}

			a.client.UpdateFields(ff.overlay(cmd, a.client.Snapshot().Form.Fields))
			if clearImage {
				a.client.ClearImage()
			}
			if ff.image != "" {
				if err := a.client.AttachImageFile(ff.image); err != nil {
					return a.report(err)
				}
			}
			return a.report(a.client.Submit(cmd.Context()))
		},
	}
	ff.bind(cmd)
	cmd.Flags().BoolVar(&clearImage, "clear-image", false, "remove the current image")
	cmd.MarkFlagsMutuallyExclusive("image", "clear-image")
	return cmd
}

// =========================================================================
// delete / tui
// =========================================================================

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a car listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				fmt.Fprintln(a.errOut, err)
				return errReported
			}
			confirmed := yes || a.confirm(fmt.Sprintf("Are you sure you want to delete car #%d? [y/N] ", id))
			if !confirmed {
				fmt.Fprintln(a.out, "Cancelled")
			}
			return a.report(a.client.Delete(cmd.Context(), id, confirmed))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.out, prompt)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := tui.Run(cmd.Context(), a.client); err != nil {
				fmt.Fprintln(a.errOut, err)
				return errReported
			}
			return nil
		},
	}
}
