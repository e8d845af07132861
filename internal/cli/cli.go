package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-placeholders/internal/clipboard"
	"github.com/dpshade/pocket-placeholders/internal/commands"
	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
	"github.com/dpshade/pocket-placeholders/internal/renderer"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/validation"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	service      *service.Service
	executor     *commands.CommandExecutor
	errorHandler *errors.CLIErrorHandler
	ctx          context.Context
	out          io.Writer
	errOut       io.Writer
	in           io.Reader
	wordWrap     int
	clipboard    func(string) (string, error)
}

// NewCLI creates a new CLI instance writing to stdout
func NewCLI(svc *service.Service) *CLI {
	return &CLI{
		service:      svc,
		executor:     commands.NewCommandExecutor(svc),
		errorHandler: errors.NewCLIErrorHandler(false),
		ctx:          context.Background(),
		out:          os.Stdout,
		errOut:       os.Stderr,
		in:           os.Stdin,
		wordWrap:     renderer.DefaultWordWrap,
		clipboard:    clipboard.CopyWithFallback,
	}
}

// WithContext sets the context commands run in. The session user, if any, comes from it.
func (c *CLI) WithContext(ctx context.Context) *CLI {
	c.ctx = ctx
	return c
}

// WithIO redirects input and output
func (c *CLI) WithIO(in io.Reader, out, errOut io.Writer) *CLI {
	c.in, c.out, c.errOut = in, out, errOut
	return c
}

// WithWordWrap sets the markdown wrap width
func (c *CLI) WithWordWrap(width int) *CLI {
	if width > 0 {
		c.wordWrap = width
	}
	return c
}

// SetVerbose toggles error details and logging
func (c *CLI) SetVerbose(verbose bool) {
	c.errorHandler.Verbose = verbose
}

// ExecuteCommand processes a CLI command and returns the result
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "list", "ls":
		return c.listPlaceholders(commandArgs)
	case "owners":
		return c.listOwners(commandArgs)
	case "search":
		return c.searchPlaceholders(commandArgs)
	case "render", "substitute":
		return c.substitute(commandArgs)
	case "copy":
		return c.copyRendered(commandArgs)
	case "values":
		return c.showValues(commandArgs)
	case "lint":
		return c.lint(commandArgs)
	case "users", "user":
		return c.handleUsers(commandArgs)
	case "tour":
		return c.handleTour(commandArgs)
	case "packs":
		return c.listPacks(commandArgs)
	case "help":
		return c.printHelp(commandArgs)
	default:
		return fmt.Errorf("unknown command: %s. Use 'help' for usage information", command)
	}
}

// run executes a command, turning a failed result into a formatted error
func (c *CLI) run(name string, params map[string]interface{}) (*commands.CommandResult, error) {
	result, err := c.executor.Execute(c.ctx, name, params)
	if err != nil {
		return nil, c.errorHandler.HandleError(err)
	}
	if !result.Success {
		if result.Error != nil {
			return nil, c.errorHandler.HandleError(result.Error.AppError())
		}
		return nil, c.errorHandler.HandleError(errors.InternalError("Command failed"))
	}
	return result, nil
}

// listPlaceholders lists the registered placeholders
func (c *CLI) listPlaceholders(args []string) error {
	var format string
	var owner string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		case "--owner", "-o":
			if i+1 < len(args) {
				owner = models.Slugify(args[i+1])
				i++
			}
		}
	}

	params := map[string]interface{}{}
	if owner != "" {
		params["owner"] = owner
	}
	if format != "" {
		params["format"] = format
	}

	result, err := c.run("list", params)
	if err != nil {
		return err
	}
	return c.formatPlaceholders(result.Data.([]models.Placeholder), format)
}

// listOwners lists owner groups in display order
func (c *CLI) listOwners(args []string) error {
	format := flagValue(args, "--format", "-f")

	result, err := c.run("owners", nil)
	if err != nil {
		return err
	}

	owners := result.Data.([]models.Owner)
	if ok, err := c.writeStructured(owners, format); ok {
		return err
	}
	for _, o := range owners {
		fmt.Fprintf(c.out, "%-20s %s\n", o.Slug, o.Name)
	}
	return nil
}

// searchPlaceholders fuzzy searches tokens, labels and owners
func (c *CLI) searchPlaceholders(args []string) error {
	var format string
	var terms []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		default:
			terms = append(terms, args[i])
		}
	}

	if len(terms) == 0 {
		return fmt.Errorf("search requires a query")
	}

	result, err := c.run("search", map[string]interface{}{"query": strings.Join(terms, " ")})
	if err != nil {
		return err
	}

	found := result.Data.([]models.Placeholder)
	if len(found) == 0 && format == "" {
		fmt.Fprintln(c.out, "No placeholders found")
		return nil
	}
	return c.formatPlaceholders(found, format)
}

// renderOptions are the flags shared by render and copy
type renderOptions struct {
	user   string
	file   string
	format string
	vars   []string
	text   []string
}

func parseRenderOptions(args []string) renderOptions {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--user", "-u":
			if i+1 < len(args) {
				opts.user = args[i+1]
				i++
			}
		case "--var", "-v":
			if i+1 < len(args) {
				opts.vars = append(opts.vars, args[i+1])
				i++
			}
		case "--file":
			if i+1 < len(args) {
				opts.file = args[i+1]
				i++
			}
		case "--format", "-f":
			if i+1 < len(args) {
				opts.format = args[i+1]
				i++
			}
		default:
			opts.text = append(opts.text, args[i])
		}
	}
	return opts
}

// readContent returns the content named by --file, the positional text, or stdin
func (c *CLI) readContent(file string, text []string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}
	if len(text) > 0 && !(len(text) == 1 && text[0] == "-") {
		return strings.Join(text, " "), nil
	}

	data, err := io.ReadAll(c.in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// renderDocument substitutes content and renders it in the requested format
func (c *CLI) renderDocument(opts renderOptions) (string, *commands.SubstituteResult, error) {
	content, err := c.readContent(opts.file, opts.text)
	if err != nil {
		return "", nil, err
	}

	params := map[string]interface{}{"content": content}
	if opts.user != "" {
		params["user"] = opts.user
	}
	if opts.format != "" {
		params["format"] = opts.format
	}
	if len(opts.vars) > 0 {
		values, err := validation.ParsePairs(opts.vars)
		if err != nil {
			return "", nil, c.errorHandler.HandleError(err)
		}
		params["values"] = values
	}

	result, err := c.run("substitute", params)
	if err != nil {
		return "", nil, err
	}

	data := result.Data.(*commands.SubstituteResult)
	out, err := renderer.NewRenderer(data.Document).WithWordWrap(c.wordWrap).Render(opts.format)
	if err != nil {
		return "", nil, c.errorHandler.HandleError(err)
	}
	return out, data, nil
}

// substitute renders content with placeholder values
func (c *CLI) substitute(args []string) error {
	opts := parseRenderOptions(args)

	out, data, err := c.renderDocument(opts)
	if err != nil {
		return err
	}

	fmt.Fprint(c.out, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(c.out)
	}
	c.warnFindings(data.Findings)
	return nil
}

// copyRendered renders content and puts the result on the clipboard
func (c *CLI) copyRendered(args []string) error {
	opts := parseRenderOptions(args)
	if opts.format == renderer.FormatMarkdown || opts.format == "md" {
		return fmt.Errorf("copy supports text and json formats only")
	}

	out, data, err := c.renderDocument(opts)
	if err != nil {
		return err
	}

	if statusMsg, err := c.clipboard(out); err != nil {
		fmt.Fprintf(c.errOut, "Warning: %s\n", c.errorHandler.FormatError(err))
		fmt.Fprintln(c.errOut, clipboard.GetInstallInstructions())
		fmt.Fprintln(c.out, out)
	} else {
		fmt.Fprintln(c.out, statusMsg)
	}
	c.warnFindings(data.Findings)
	return nil
}

// warnFindings reports unknown tokens on stderr
func (c *CLI) warnFindings(findings []placeholders.Finding) {
	for _, f := range findings {
		if f.Suggestion != "" {
			fmt.Fprintf(c.errOut, "Warning: unknown placeholder %s (did you mean %s?)\n", f.Token, f.Suggestion)
		} else {
			fmt.Fprintf(c.errOut, "Warning: unknown placeholder %s\n", f.Token)
		}
	}
}

// showValues prints the current value of every resolvable token
func (c *CLI) showValues(args []string) error {
	var user, format string
	var vars []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--user", "-u":
			if i+1 < len(args) {
				user = args[i+1]
				i++
			}
		case "--var", "-v":
			if i+1 < len(args) {
				vars = append(vars, args[i+1])
				i++
			}
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		}
	}

	params := map[string]interface{}{}
	if user != "" {
		params["user"] = user
	}
	if len(vars) > 0 {
		pairs, err := validation.ParsePairs(vars)
		if err != nil {
			return c.errorHandler.HandleError(err)
		}
		params["values"] = pairs
	}

	result, err := c.run("values", params)
	if err != nil {
		return err
	}

	values := result.Data.(models.Values)
	if ok, err := c.writeStructured(values, format); ok {
		return err
	}
	if len(values) == 0 {
		fmt.Fprintln(c.out, "No values resolved. Pass --user or set a default user.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, token := range values.Tokens() {
		fmt.Fprintf(w, "%s\t%s\n", token, values[token])
	}
	return w.Flush()
}

// lint reports tokens that no placeholder is registered for
func (c *CLI) lint(args []string) error {
	var file, format string
	var text []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--file":
			if i+1 < len(args) {
				file = args[i+1]
				i++
			}
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		default:
			text = append(text, args[i])
		}
	}

	content, err := c.readContent(file, text)
	if err != nil {
		return err
	}

	result, err := c.run("lint", map[string]interface{}{"content": content})
	if err != nil {
		return err
	}

	findings := result.Data.([]placeholders.Finding)
	if ok, err := c.writeStructured(findings, format); ok {
		return err
	}
	if len(findings) == 0 {
		fmt.Fprintln(c.out, "All placeholders are registered")
		return nil
	}
	for _, f := range findings {
		line := fmt.Sprintf("offset %d: unknown placeholder %s", f.Offset, f.Token)
		if f.Suggestion != "" {
			line += fmt.Sprintf(" (did you mean %s?)", f.Suggestion)
		}
		fmt.Fprintln(c.out, line)
	}
	return fmt.Errorf("found %d unknown placeholder(s)", len(findings))
}

// handleUsers manages user profiles
func (c *CLI) handleUsers(args []string) error {
	if len(args) == 0 {
		return c.listUsers(nil)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "list", "ls":
		return c.listUsers(subArgs)
	case "show", "get":
		return c.showUser(subArgs)
	case "add", "create":
		return c.addUser(subArgs)
	case "delete", "rm":
		return c.deleteUser(subArgs)
	default:
		return fmt.Errorf("unknown users subcommand: %s. Use list, show, add or delete", subcommand)
	}
}

func (c *CLI) listUsers(args []string) error {
	format := flagValue(args, "--format", "-f")

	result, err := c.run("list-users", nil)
	if err != nil {
		return err
	}

	users := result.Data.([]*models.User)
	if ok, err := c.writeStructured(users, format); ok {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(c.out, "No users found. Create one with 'users add'.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name(), u.Email)
	}
	return w.Flush()
}

func (c *CLI) showUser(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("users show requires a user ID")
	}

	result, err := c.run("get-user", map[string]interface{}{"id": args[0]})
	if err != nil {
		return err
	}

	user := result.Data.(*models.User)
	if ok, err := c.writeStructured(user, flagValue(args[1:], "--format", "-f")); ok {
		return err
	}

	fmt.Fprintf(c.out, "ID: %s\n", user.ID)
	fmt.Fprintf(c.out, "Display name: %s\n", user.DisplayName)
	if user.FirstName != "" || user.LastName != "" {
		fmt.Fprintf(c.out, "Name: %s\n", strings.TrimSpace(user.FirstName+" "+user.LastName))
	}
	if user.Login != "" {
		fmt.Fprintf(c.out, "Login: %s\n", user.Login)
	}
	if user.Email != "" {
		fmt.Fprintf(c.out, "Email: %s\n", user.Email)
	}
	fmt.Fprintf(c.out, "Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(c.out, "Updated: %s\n", user.UpdatedAt.Format("2006-01-02 15:04"))
	return nil
}

func (c *CLI) addUser(args []string) error {
	params := map[string]interface{}{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var key string
		switch arg {
		case "--display-name", "--name":
			key = "display_name"
		case "--first-name":
			key = "first_name"
		case "--last-name":
			key = "last_name"
		case "--email":
			key = "email"
		case "--login":
			key = "login"
		default:
			if strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unknown flag for users add: %s", arg)
			}
			params["id"] = arg
			continue
		}
		if i+1 >= len(args) {
			return fmt.Errorf("%s requires a value", arg)
		}
		params[key] = args[i+1]
		i++
	}

	result, err := c.run("add-user", params)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, result.Message)
	return nil
}

func (c *CLI) deleteUser(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("users delete requires a user ID")
	}

	result, err := c.run("delete-user", map[string]interface{}{"id": args[0]})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, result.Message)
	return nil
}

// handleTour reports, dismisses or resets the welcome tour
func (c *CLI) handleTour(args []string) error {
	action := "status"
	var user string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--user", "-u":
			if i+1 < len(args) {
				user = args[i+1]
				i++
			}
		default:
			action = args[i]
		}
	}

	params := map[string]interface{}{"action": action}
	if user != "" {
		params["user"] = user
	}

	result, err := c.run("tour", params)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, result.Message)
	return nil
}

// listPacks lists the loaded extension packs
func (c *CLI) listPacks(args []string) error {
	format := flagValue(args, "--format", "-f")

	result, err := c.run("list-packs", nil)
	if err != nil {
		return err
	}

	packs := result.Data.([]models.Pack)
	if ok, err := c.writeStructured(packs, format); ok {
		return err
	}
	if len(packs) == 0 {
		fmt.Fprintf(c.out, "No packs loaded. Add YAML files to %s/packs.\n", c.service.BaseDir())
		return nil
	}

	for _, p := range packs {
		fmt.Fprintf(c.out, "%s (%d placeholders)\n", p.Owner, len(p.Placeholders))
		if p.Description != "" {
			fmt.Fprintf(c.out, "  %s\n", p.Description)
		}
	}
	return nil
}

// formatPlaceholders formats placeholders for output
func (c *CLI) formatPlaceholders(list []models.Placeholder, format string) error {
	if ok, err := c.writeStructured(list, format); ok {
		return err
	}

	switch format {
	case "table":
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tLABEL\tOWNER")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Token, p.Label, p.Owner)
		}
		return w.Flush()
	default:
		for _, group := range placeholders.GroupByOwner(list) {
			fmt.Fprintln(c.out, group.Owner.Name)
			for _, p := range group.Placeholders {
				fmt.Fprintf(c.out, "  %-24s %s\n", p.Token, p.Label)
			}
			fmt.Fprintln(c.out)
		}
	}
	return nil
}

// writeStructured writes v as JSON or YAML. It reports false for any other format.
func (c *CLI) writeStructured(v interface{}, format string) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// flagValue returns the value following the first of names in args
func flagValue(args []string, names ...string) string {
	for i := 0; i < len(args)-1; i++ {
		for _, name := range names {
			if args[i] == name {
				return args[i+1]
			}
		}
	}
	return ""
}

func (c *CLI) printUsage() error {
	fmt.Fprintln(c.out, `pocket-placeholders - Headless CLI mode

Usage: pocket-placeholders <command> [options]

Commands:
  list, ls              List registered placeholders
  owners                List placeholder owners
  search <query>        Fuzzy search placeholders
  render, substitute    Replace placeholders in text with current values
  copy                  Render and copy the result to the clipboard
  values                Show the current value of every placeholder
  lint                  Report unknown placeholders in text
  users                 Manage user profiles (list, show, add, delete)
  tour                  Welcome tour state (status, dismiss, reset)
  packs                 List loaded placeholder packs
  help                  Show help

Use 'pocket-placeholders help <command>' for detailed help on a specific command.`)
	return nil
}

func (c *CLI) printHelp(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	switch command {
	case "list", "ls":
		fmt.Fprintln(c.out, `list - List registered placeholders

Usage: pocket-placeholders list [options]

Options:
  --format, -f <format>  Output format (text, table, json, yaml)
  --owner, -o <owner>    Only placeholders of this owner`)

	case "search":
		fmt.Fprintln(c.out, `search - Fuzzy search placeholders

Usage: pocket-placeholders search <query> [options]

Options:
  --format, -f <format>  Output format (text, table, json, yaml)

Example:
  pocket-placeholders search email`)

	case "render", "substitute", "copy":
		fmt.Fprintln(c.out, `render - Replace placeholders with their current values

Usage: pocket-placeholders render [options] [text...]

Content comes from --file, the remaining arguments, or stdin.

Options:
  --user, -u <id>        Resolve user placeholders for this user
  --var, -v <K=V>        Extra value, repeatable (K is literal; NAME also fills ${NAME})
  --file <path>          Read content from a file
  --format, -f <format>  Output format (text, json, markdown)

Examples:
  pocket-placeholders render --user ada 'Hello ${USER_FIRST_NAME}'
  pocket-placeholders render --var CITY=London --file letter.md --format markdown
  pocket-placeholders copy --user ada 'Signed ${USER_DISPLAY_NAME}, ${DATE}'`)

	case "values":
		fmt.Fprintln(c.out, `values - Show current placeholder values

Usage: pocket-placeholders values [options]

Options:
  --user, -u <id>        Resolve user placeholders for this user
  --var, -v <K=V>        Extra value, repeatable
  --format, -f <format>  Output format (text, json, yaml)`)

	case "lint":
		fmt.Fprintln(c.out, `lint - Report unknown placeholders

Usage: pocket-placeholders lint [--file <path>] [text...]

Exits with an error when any ${NAME} token is not registered.`)

	case "users", "user":
		fmt.Fprintln(c.out, `users - Manage user profiles

Usage: pocket-placeholders users <subcommand> [options]

Subcommands:
  list                   List users
  show <id>              Show a user
  add [id] [options]     Create a user (id generated when omitted)
  delete <id>            Delete a user

Options for add:
  --display-name <name>  Display name (required)
  --first-name <name>
  --last-name <name>
  --email <address>
  --login <login>`)

	case "tour":
		fmt.Fprintln(c.out, `tour - Welcome tour state

Usage: pocket-placeholders tour [status|dismiss|reset] [--user <id>]`)

	default:
		if description, ok := c.executor.Describe(command); ok {
			fmt.Fprintf(c.out, "%s - %s\n", command, description)
			return nil
		}
		return fmt.Errorf("no help available for command: %s", command)
	}

	return nil
}
