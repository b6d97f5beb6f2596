// Command tokengen issues a bearer token for local use.
//
//	JWT_SECRET=dev tokengen -employee sup-marta -role supervisor -ttl 8h
//
// The secret is read through the same configuration as the server, so a
// .env file next to the binary works too.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/api"
	"github.com/warp/workhours/config"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/logger"
)

func main() {
	employee := flag.String("employee", "", "employee id (token subject)")
	role := flag.String("role", string(generic.RoleEmployee), "employee | supervisor | admin")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: TOKEN_TTL)")
	flag.Parse()

	logger.Setup("warn", true)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}
	if *employee == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *ttl == 0 {
		*ttl = cfg.TokenTTL
	}

	p := access.Principal{EmployeeID: generic.EmployeeID(*employee), Role: generic.Role(*role)}
	token, err := api.IssueToken([]byte(cfg.JWTSecret), p, *ttl, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Could not issue token")
	}
	fmt.Println(token)
}
