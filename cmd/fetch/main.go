// Command fetch issues a single HTTP/1.1 request and prints the response
// body, optionally extracting a JSON field or saving to a file.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"microhttp/client"
	"microhttp/http"
	"microhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fetch:", err)
		os.Exit(1)
	}
}

type options struct {
	method       string
	headers      []string
	data         string
	jsonData     string
	user         string
	output       string
	extract      string
	maxRedirects int
	timeout      time.Duration
	verbose      bool
}

func newCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "fetch URL",
		Short:         "Issue a single HTTP/1.1 request",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.method, "method", "X", "", "request method (default GET, POST with a body)")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "extra header as 'Name: value', repeatable")
	flags.StringVarP(&opts.data, "data", "d", "", "raw request body")
	flags.StringVarP(&opts.jsonData, "json", "j", "", "JSON request body")
	flags.StringVarP(&opts.user, "user", "u", "", "basic auth as user:password")
	flags.StringVarP(&opts.output, "output", "o", "", "save the body to a file")
	flags.StringVar(&opts.extract, "extract", "", "print only this JSON path from the body")
	flags.IntVar(&opts.maxRedirects, "max-redirects", client.DefaultMaxRedirects, "redirects to follow before failing")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "absolute I/O deadline per connection, 0 disables")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity and print response headers")

	return cmd
}

func run(cmd *cobra.Command, url string, opts *options) error {
	var logger *slog.Logger
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	clk := clock.New()

	engine := client.New(
		transport.NewNetDialer(opts.timeout, clk),
		transport.NewNetLookuper(),
		transport.NewTLSConfigWrapper(nil),
		logger,
		clk,
		client.Options{},
	)

	request, err := buildRequest(cmd, url, opts)
	if err != nil {
		return err
	}

	res, err := engine.Do(cmd.Context(), request)
	if err != nil {
		return err
	}
	defer res.Close()

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "%d %s\n", res.Status, res.Reason)
		for _, field := range res.Headers {
			fmt.Fprintf(os.Stderr, "%s\n", field.Text())
		}
	}

	return emit(res, opts)
}

func buildRequest(cmd *cobra.Command, url string, opts *options) (*client.Request, error) {
	request := &client.Request{
		Method:        opts.method,
		URL:           url,
		RetainHeaders: opts.verbose,
	}

	if opts.data != "" && opts.jsonData != "" {
		return nil, errors.New("--data and --json are mutually exclusive")
	}

	if opts.data != "" {
		request.Body = []byte(opts.data)
	}

	if opts.jsonData != "" {
		var document any
		if err := json.Unmarshal([]byte(opts.jsonData), &document); err != nil {
			return nil, errors.Wrap(err, "parsing --json value")
		}
		request.JSON = document
	}

	if request.Method == "" {
		request.Method = "GET"
		if request.Body != nil || request.JSON != nil {
			request.Method = "POST"
		}
	}

	for _, header := range opts.headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, errors.Errorf("malformed header %q, want 'Name: value'", header)
		}
		request.Headers = append(request.Headers,
			http.NewField(strings.TrimSpace(name), strings.TrimSpace(value)))
	}

	if opts.user != "" {
		user, password, _ := strings.Cut(opts.user, ":")
		request.Auth = client.Credentials{User: user, Password: password}
	}

	if cmd.Flags().Changed("max-redirects") {
		request.MaxRedirects = &opts.maxRedirects
	}

	return request, nil
}

func emit(res *client.Response, opts *options) error {
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer file.Close()

		if err := res.Save(file, 0); err != nil {
			return errors.Wrap(err, "saving body")
		}
		return nil
	}

	content, err := res.Content()
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	if opts.extract != "" {
		result := gjson.GetBytes(content, opts.extract)
		if !result.Exists() {
			return errors.Errorf("path %q not found in response", opts.extract)
		}
		fmt.Println(result.String())
		return nil
	}

	if _, err := os.Stdout.Write(content); err != nil {
		return errors.Wrap(err, "writing body")
	}
	return nil
}
