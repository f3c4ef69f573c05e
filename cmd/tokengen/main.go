// Command tokengen mints bearer tokens for the coin card API.
//
// Players are identified by their identity UUID. The admin subject is ADMIN_USERNAME.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/coincard/internal/accountstore"
	"github.com/go-petr/coincard/pkg/configpkg"
	"github.com/go-petr/coincard/pkg/tokenpkg"
)

func main() {
	var (
		configPath = flag.String("config", "./configs", "directory holding app.env")
		subject    = flag.String("subject", "", "identity UUID, or the admin username")
		admin      = flag.Bool("admin", false, "mint a token for ADMIN_USERNAME")
		nick       = flag.String("nick", "", "look the identity up by nick in USERS_FILE")
		newID      = flag.Bool("new", false, "mint a token for a fresh identity")
		duration   = flag.Duration("duration", 0, "token lifetime, defaults to ACCESS_TOKEN_DURATION")
	)

	flag.Parse()

	config, err := configpkg.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	switch {
	case *admin:
		*subject = config.AdminUsername
	case *nick != "":
		store, err := accountstore.Open(config.UsersFile)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot open users file")
		}

		ident, err := store.IdentityByNick(context.Background(), *nick)
		if err != nil {
			log.Fatal().Err(err).Str("nick", *nick).Msg("cannot find identity")
		}

		*subject = ident.ID.String()
	case *newID:
		*subject = uuid.NewString()
	case *subject == "":
		flag.Usage()
		os.Exit(2)
	}

	if *duration <= 0 {
		*duration = config.AccessTokenDuration
	}

	maker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create token maker")
	}

	token, payload, err := maker.CreateToken(*subject, *duration)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create token")
	}

	fmt.Fprintf(os.Stderr, "subject=%s expires=%s\n", payload.Username, payload.ExpiredAt.Format(time.RFC3339))
	fmt.Println(token)
}
