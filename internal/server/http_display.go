package server

import "fmt"

// displayServerInfo prints the listening address, endpoints and protections.
func (s *Server) displayServerInfo(tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s:%s (TLS mode: %s)\n", scheme, s.Host, s.Port, s.TLSConfig.Mode)
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                      - Health check")
	fmt.Println("  GET  /stats                       - Server statistics")
	fmt.Println("  POST /leave/apply                 - Evaluate a leave request")
	fmt.Println("  GET  /leave/policies              - List leave policies")
	fmt.Println("  PUT  /leave/policies/{type}       - Update a leave policy")
	fmt.Println("  GET  /leave/history/{employee_id} - Recorded leave requests")
	fmt.Println("  POST /resume/upload               - Extract and match a resume (multipart)")
	fmt.Println("  POST /resume/match                - Match structured resume and job")
	fmt.Println("  POST /resume/match-all            - Rematch every stored resume and job")
	fmt.Println("  GET  /resume/jobs/{name}/matches  - Ranked matches of a job")
	fmt.Println("  GET  /resume/stats                - Document store statistics")
	fmt.Println("  GET  /resume/debug                - Document store collections")
}

func (s *Server) displayAuthInfo() {
	if n := s.apiKeyCount(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /leave and /resume endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
	if s.SecretWatcher != nil {
		fmt.Println("API key rotation: ENABLED (polling Vault)")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB), uploads: %.1f MB\n",
			s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024), float64(s.MaxUploadSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
