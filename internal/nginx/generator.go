package nginx

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/project-odysseus/odyctl/internal/logger"
)

const (
	SecurityFile = "security.conf"
	CacheFile    = "cache.conf"
	LoggingFile  = "logging.conf"

	// DefaultTag classifies any upstream that is not an odysseus service.
	DefaultTag = "default"
)

// upstreamTags maps local domains to the service tag stamped into access
// log lines.
var upstreamTags = map[string]string{
	"odysseus.local":            "bot",
	"api.odysseus.local":        "bot",
	"dashboard.odysseus.local":  "dashboard",
	"grafana.odysseus.local":    "grafana",
	"prometheus.odysseus.local": "prometheus",
}

// Generator writes the three proxy configuration fragments. They are derived
// artifacts, regenerated unconditionally on every run; no backup discipline
// applies here.
type Generator struct {
	dir string
	log logger.Logger
}

func NewGenerator(dir string, log logger.Logger) *Generator {
	return &Generator{dir: dir, log: log}
}

// Generate overwrites all three fragments.
func (g *Generator) Generate() error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create nginx conf dir: %w", err)
	}

	fragments := []struct {
		name string
		tpl  *template.Template
		data interface{}
	}{
		{SecurityFile, securityTpl, nil},
		{CacheFile, cacheTpl, nil},
		{LoggingFile, loggingTpl, tagMappings()},
	}
	for _, frag := range fragments {
		var buf bytes.Buffer
		if err := frag.tpl.Execute(&buf, frag.data); err != nil {
			return fmt.Errorf("failed to render %s: %w", frag.name, err)
		}
		path := filepath.Join(g.dir, frag.name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", frag.name, err)
		}
	}

	g.log.Info("generated proxy configuration fragments",
		logger.String("dir", g.dir),
		logger.Int("fragments", len(fragments)))
	return nil
}

// UpstreamTag returns the log tag for a proxied host, falling back to the
// default tag for anything unknown.
func UpstreamTag(host string) string {
	if tag, ok := upstreamTags[host]; ok {
		return tag
	}
	return DefaultTag
}

type tagMapping struct {
	Host string
	Tag  string
}

// tagMappings returns the host→tag pairs in stable order so regenerated
// files diff cleanly.
func tagMappings() []tagMapping {
	hosts := make([]string, 0, len(upstreamTags))
	for host := range upstreamTags {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	mappings := make([]tagMapping, 0, len(hosts))
	for _, host := range hosts {
		mappings = append(mappings, tagMapping{Host: host, Tag: upstreamTags[host]})
	}
	return mappings
}

var securityTpl = template.Must(template.New(SecurityFile).Parse(`# Generated by odyctl - do not edit, regenerated on every setup run.

client_max_body_size 10m;
client_body_timeout 30s;
client_header_timeout 30s;
send_timeout 30s;

proxy_connect_timeout 10s;
proxy_read_timeout 60s;
proxy_send_timeout 60s;

limit_req_zone $binary_remote_addr zone=api_limit:10m rate=30r/s;
limit_req_zone $binary_remote_addr zone=dashboard_limit:10m rate=10r/s;
limit_conn_zone $binary_remote_addr zone=conn_limit:10m;

server_tokens off;
add_header X-Content-Type-Options nosniff always;
add_header X-Frame-Options SAMEORIGIN always;
`))

var cacheTpl = template.Must(template.New(CacheFile).Parse(`# Generated by odyctl - do not edit, regenerated on every setup run.

proxy_cache_path /var/cache/nginx/static levels=1:2 keys_zone=static_cache:10m
                 max_size=256m inactive=24h use_temp_path=off;
proxy_cache_path /var/cache/nginx/api levels=1:2 keys_zone=api_cache:10m
                 max_size=64m inactive=5m use_temp_path=off;

map $uri $static_cacheable {
    ~*\.(css|js|png|jpg|jpeg|gif|ico|svg|woff2?)$ 1;
    default 0;
}

proxy_cache_key "$scheme$request_method$host$request_uri";
proxy_cache_valid 200 302 10m;
proxy_cache_valid 404 1m;
`))

var loggingTpl = template.Must(template.New(LoggingFile).Parse(`# Generated by odyctl - do not edit, regenerated on every setup run.

map $host $service_tag {
{{- range . }}
    {{ .Host }} "{{ .Tag }}";
{{- end }}
    default "default";
}

log_format odysseus_json escape=json
    '{'
    '"time":"$time_iso8601",'
    '"service":"$service_tag",'
    '"remote_addr":"$remote_addr",'
    '"request":"$request",'
    '"status":$status,'
    '"body_bytes_sent":$body_bytes_sent,'
    '"request_time":$request_time,'
    '"upstream_addr":"$upstream_addr"'
    '}';

access_log /var/log/nginx/access.log odysseus_json;
`))
