package startup

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// Unit describes the systemd service that runs the GreenSat server.
type Unit struct {
	User       string
	WorkDir    string
	Binary     string
	ConfigFile string
	LogFile    string
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=GreenSat sensor API and ingest bridge
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User={{.User}}
WorkingDirectory={{.WorkDir}}
ExecStart={{.Binary}} -config-file {{.ConfigFile}}{{if .LogFile}} -log-file {{.LogFile}}{{end}}
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`))

func (u Unit) Render() (string, error) {
	if u.User == "" || u.WorkDir == "" || u.Binary == "" || u.ConfigFile == "" {
		return "", fmt.Errorf("service unit needs user, workdir, binary and config file")
	}
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, u); err != nil {
		return "", fmt.Errorf("render unit: %w", err)
	}
	return buf.String(), nil
}

// InstallService writes the rendered unit to path.
func InstallService(path string, u Unit) error {
	contents, err := u.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(contents), 0644)
}
