package serverselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/art-vbst/art-admin/internal/cli/config"
	"github.com/art-vbst/art-admin/internal/cli/userconfig"
)

// SelectFunc interactively picks one of the configured hosts
type SelectFunc func(cfg *config.Config) (*config.Host, error)

// Resolver determines which API host a command talks to
type Resolver struct {
	// EnvHost is the ART_API_HOST value; it wins over everything but an
	// explicit alias
	EnvHost string
	Select  SelectFunc
	Warn    io.Writer
}

// Resolve picks a host based on the following priority:
// 1. If hostAlias is provided, use that host
// 2. If ART_API_HOST is set, use it
// 3. If user has a selected host in their local config, use that
// 4. If only one host in project config, use that
// 5. Otherwise, prompt user to select a host interactively
func (r *Resolver) Resolve(projectConfig *config.Config, hostAlias string) (*config.Host, error) {
	if hostAlias != "" {
		if projectConfig == nil {
			return nil, fmt.Errorf("host '%s' requested but no %s was found", hostAlias, config.ConfigFileName)
		}
		return projectConfig.GetHostByURLOrAlias(hostAlias)
	}

	if r.EnvHost != "" {
		return &config.Host{URL: r.EnvHost, Alias: "env"}, nil
	}

	if projectConfig == nil {
		return nil, fmt.Errorf("no API host configured: set ART_API_HOST or run 'artadmin init <url>'")
	}

	selectedURL, err := userconfig.GetSelectedHost()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		host, err := projectConfig.GetHostByURLOrAlias(selectedURL)
		if err == nil {
			return host, nil
		}
		// Selected host no longer exists in project config, clear it and continue
		_ = userconfig.SetSelectedHost("")
	}

	if len(projectConfig.Hosts) == 1 {
		host := &projectConfig.Hosts[0]
		r.remember(host)
		return host, nil
	}

	selectFn := r.Select
	if selectFn == nil {
		selectFn = PromptHostSelection
	}
	host, err := selectFn(projectConfig)
	if err != nil {
		return nil, err
	}

	r.remember(host)
	return host, nil
}

func (r *Resolver) remember(host *config.Host) {
	if err := userconfig.SetSelectedHost(host.URL); err != nil && r.Warn != nil {
		// Don't fail if we can't save, just continue
		fmt.Fprintf(r.Warn, "Warning: failed to save selected host: %v\n", err)
	}
}

// PromptHostSelection shows an interactive prompt for the user to select a host
func PromptHostSelection(projectConfig *config.Config) (*config.Host, error) {
	if len(projectConfig.Hosts) == 0 {
		return nil, fmt.Errorf("no hosts configured in %s", config.ConfigFileName)
	}

	type hostOption struct {
		Label string
		Host  *config.Host
	}

	options := make([]hostOption, len(projectConfig.Hosts))
	for i := range projectConfig.Hosts {
		host := &projectConfig.Hosts[i]
		options[i] = hostOption{
			Label: fmt.Sprintf("%s (%s)", host.Alias, host.URL),
			Host:  host,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select an API host",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("host selection cancelled: %w", err)
	}

	return options[index].Host, nil
}
