package banner

import "fmt"

const banner = `
███╗   ██╗███████╗██╗    ██╗███████╗██████╗ ███████╗██╗      █████╗ ██╗   ██╗
████╗  ██║██╔════╝██║    ██║██╔════╝██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝
██╔██╗ ██║█████╗  ██║ █╗ ██║███████╗██████╔╝█████╗  ██║     ███████║ ╚████╔╝ 
██║╚██╗██║██╔══╝  ██║███╗██║╚════██║██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝  
██║ ╚████║███████╗╚███╔███╔╝███████║██║  ██║███████╗███████╗██║  ██║   ██║   
╚═╝  ╚═══╝╚══════╝ ╚══╝╚══╝ ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝   
`

// Print writes the startup banner and runtime info to stdout.
func Print(addr, dbPath, webhook, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if webhook != "" {
		fmt.Printf("Webhook:  %s\n", webhook)
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config sources: %s\n", source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /ingest  - Submit a raw item (JSON: id, source_id, kind, payload, ts)")
	fmt.Println("GET  /stats   - Pipeline snapshot (JSON response)")
	fmt.Println("GET  /metrics - Prometheus metrics")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/ingest' -d '{\"source_id\": \"feed-1\", \"payload\": \"hello\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/stats'\n", addr)
	fmt.Println()
}
