// Package descriptions holds the long-form MCP tool descriptions.
package descriptions

import "sort"

// Tool names exposed over MCP.
const (
	ExtractAddressTool   = "sar_extract_address"
	ExtractDirectoryTool = "sar_extract_directory"
	ServerInfoTool       = "sar_server_info"
)

const (
	ExtractAddressDescription = `Extract the postal address from one SAR PDF document.

**When to use:** You have a single SAR ("Libellé d'adresse") PDF and need its street address, NPA and commune.

**How it works:** The document text is read page by page. The address block introduced by "Libellé d'adresse :" is searched first; when no complete block exists on a page, the first "NPA Commune" line of the page is used, with the street taken from the lines just above it.

**Response:** JSON object with success, data {address, npa, commune}, page (1-based) and file_name. On failure, success is false and error carries the reason (French).

**Examples:**
• "Extract the address of raccordement-1870.pdf"
• "Which commune is in sar/export-2024-03.pdf?"

**Notes:** path may be relative to the configured directory. Files outside it are refused.`

	ExtractDirectoryDescription = `Extract the postal address from every SAR PDF in a directory.

**When to use:** A batch of SAR documents was exported into a folder and all addresses are needed at once.

**Response:** JSON object with success, results (one entry per file, sorted by path), count and success_count. A document that cannot be read or parsed produces a failed entry; the rest of the batch continues.

**Examples:**
• "Extract addresses from all PDFs in the configured directory"
• "Run the extraction over exports/2024-03"

**Notes:** directory defaults to the configured directory and must stay inside it. Hidden folders are skipped.`

	ServerInfoDescription = `Get server status, limits, the configured directory and the PDF files it contains.

**When to use:** Before calling the extraction tools, to discover which files are available and which limits apply.

**Response:** Plain text summary with version, directory, maximum file size, extraction timeout, available tools and up to ten PDF files.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ExtractAddressTool:   ExtractAddressDescription,
	ExtractDirectoryTool: ExtractDirectoryDescription,
	ServerInfoTool:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
