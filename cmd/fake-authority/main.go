// ABOUTME: Minimal fake authority for local development and E2E testing of authgate.
// ABOUTME: Usage: fake-authority serve [-addr :3000] | fake-authority token -sub u1 [-role admin]

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// grants maps subject -> org -> granted names. One table serves both
// permissions and roles; a real authority would keep them apart, but for a
// dev stub one namespace is enough.
type grants map[string]map[string][]string

type server struct {
	secret      []byte
	permissions grants
	roles       grants
}

// grantsFile is the optional YAML file shape:
//
//	permissions:
//	  u1:
//	    org1: ["doc:read", "doc:write"]
//	roles:
//	  u1:
//	    org1: ["admin"]
type grantsFile struct {
	Permissions grants `yaml:"permissions"`
	Roles       grants `yaml:"roles"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fake-authority <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve [-addr :3000] [-secret S] [-grants grants.yaml]   Run the stub authority")
		fmt.Println("  token -sub SUBJECT [-role R] [-perms a,b] [-ttl 1h]     Mint a dev token")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":3000", "listen address")
	secret := fs.String("secret", "fake-authority-dev-secret", "HS256 signing secret")
	grantsPath := fs.String("grants", "", "YAML file of permission/role grants")
	_ = fs.Parse(args)

	s := &server{secret: []byte(*secret), permissions: grants{}, roles: grants{}}
	if *grantsPath != "" {
		data, err := os.ReadFile(*grantsPath)
		if err != nil {
			return fmt.Errorf("reading grants file: %w", err)
		}
		var gf grantsFile
		if err := yaml.Unmarshal(data, &gf); err != nil {
			return fmt.Errorf("parsing grants file: %w", err)
		}
		if gf.Permissions != nil {
			s.permissions = gf.Permissions
		}
		if gf.Roles != nil {
			s.roles = gf.Roles
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/introspect", s.handleIntrospect)
	mux.HandleFunc("/auth/check-permission", s.handleCheck(s.permissions, "hasPermission", "permissions"))
	mux.HandleFunc("/auth/check-role", s.handleCheck(s.roles, "hasRole", "roles"))

	color.Cyan("fake-authority listening on %s", *addr)
	if *grantsPath != "" {
		color.HiBlack("grants loaded from %s", *grantsPath)
	} else {
		color.Yellow("no grants file: every check will be denied")
	}
	return http.ListenAndServe(*addr, mux)
}

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("secret", "fake-authority-dev-secret", "HS256 signing secret")
	sub := fs.String("sub", "", "subject (required)")
	role := fs.String("role", "", "single role claim")
	perms := fs.String("perms", "", "comma-separated permission claims")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if *sub == "" {
		return errors.New("-sub is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": *sub,
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
	}
	if *role != "" {
		claims["role"] = *role
	}
	if *perms != "" {
		claims["permissions"] = strings.Split(*perms, ",")
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	fmt.Println(token)
	return nil
}

// verify parses and validates an HS256 token, returning its claims.
func (s *server) verify(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		http.Error(w, `{"error":"token is required"}`, http.StatusBadRequest)
		return
	}

	claims, err := s.verify(body.Token)
	if err != nil {
		writeJSON(w, map[string]any{"active": false})
		return
	}

	resp := map[string]any{"active": true}
	if sub, _ := claims["sub"].(string); sub != "" {
		resp["sub"] = sub
	}
	if role, _ := claims["role"].(string); role != "" {
		resp["role"] = role
	}
	if perms, ok := claims["permissions"].([]any); ok {
		resp["permissions"] = perms
	}
	writeJSON(w, resp)
}

// handleCheck builds a handler for one check endpoint. The boolean reduction
// over the requested set happens here, on the authority side.
func (s *server) handleCheck(table grants, decisionField, subjectsField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, `{"error":"bearer credential required"}`, http.StatusUnauthorized)
			return
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}
		userID, _ := body["userId"].(string)
		orgID, _ := body["orgId"].(string)
		match, _ := body["match"].(string)
		requested, _ := body[subjectsField].([]any)
		if userID == "" || orgID == "" || len(requested) == 0 {
			http.Error(w, `{"error":"userId, orgId and `+subjectsField+` are required"}`, http.StatusBadRequest)
			return
		}

		granted := map[string]bool{}
		for _, name := range table[userID][orgID] {
			granted[name] = true
		}

		decision := match == "all"
		for _, raw := range requested {
			name, _ := raw.(string)
			if match == "all" {
				decision = decision && granted[name]
			} else {
				decision = decision || granted[name]
			}
		}
		writeJSON(w, map[string]any{decisionField: decision})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
