package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"TechWatch/internal/domain"
)

// TechEntry binds one technology to its match keywords. Entries are kept in a
// slice because declaration order is the tie-break order during matching.
type TechEntry struct {
	Technology domain.Technology `yaml:"technology"`
	Keywords   []string          `yaml:"keywords"`
}

// SeverityTiers holds the signal keywords per severity, evaluated from
// critical down to low.
type SeverityTiers struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
	Low      []string `yaml:"low"`
}

// Table is the full lexicon consumed read-only by the fallback classifier.
type Table struct {
	Technologies []TechEntry   `yaml:"technologies"`
	Severity     SeverityTiers `yaml:"severity"`
}

// LoadTable reads a lexicon YAML file. An empty path yields the compiled-in
// default table.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}

	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return Table{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	if len(table.Technologies) == 0 {
		table.Technologies = DefaultTable().Technologies
	}
	if len(table.Severity.Critical) == 0 && len(table.Severity.High) == 0 {
		table.Severity = DefaultTable().Severity
	}

	return table, nil
}

// DefaultTable returns the built-in lexicon. The exploits entry comes first:
// vulnerability signal words outrank vendor mentions on ties.
func DefaultTable() Table {
	return Table{
		Technologies: []TechEntry{
			{Technology: domain.TechExploits, Keywords: []string{
				"cve-", "vulnerability", "exploit", "zero-day", "malware", "ransomware",
				"security advisory", "security bulletin", "remote code execution",
				"privilege escalation", "denial of service", "authentication bypass",
				"information disclosure", "buffer overflow",
			}},
			{Technology: domain.TechFortinet, Keywords: []string{
				"fortinet", "fortigate", "fortios", "fortiswitch", "fortiap",
				"fortianalyzer", "fortimanager", "fortiguard", "ssl vpn",
			}},
			{Technology: domain.TechSentinelOne, Keywords: []string{
				"sentinelone", "sentinel one", "endpoint detection", "edr", "xdr",
				"behavioral ai", "threat hunting",
			}},
			{Technology: domain.TechJumpCloud, Keywords: []string{
				"jumpcloud", "jump cloud", "directory service", "ldap", "radius",
				"single sign-on", "identity management", "device management",
			}},
			{Technology: domain.TechVMware, Keywords: []string{
				"vmware", "vsphere", "vcenter", "esxi", "vsan", "nsx", "horizon",
				"vrealize", "cloud director", "tanzu",
			}},
			{Technology: domain.TechRubrik, Keywords: []string{
				"rubrik", "immutable backup", "cyber recovery", "ransomware recovery",
				"cloud data management", "data protection",
			}},
			{Technology: domain.TechDell, Keywords: []string{
				"dell", "poweredge", "idrac", "openmanage", "dell emc", "powerstore",
				"data domain", "avamar",
			}},
			{Technology: domain.TechMicrosoft, Keywords: []string{
				"microsoft", "windows server", "windows 10", "windows 11", "office 365",
				"microsoft 365", "exchange", "sharepoint", "active directory", "azure",
				"powershell", "hyper-v", "defender", "outlook", "teams",
			}},
		},
		Severity: SeverityTiers{
			Critical: []string{"critical", "urgent", "exploit", "zero-day", "ransomware"},
			High:     []string{"high", "vulnerability", "cve", "patch"},
			Medium:   []string{"security", "update", "fix"},
			Low:      []string{"info", "announcement", "release"},
		},
	}
}
