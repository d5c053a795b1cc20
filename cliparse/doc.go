// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration parsing from CLI flags and environment.

# Precedence

CLI flags take priority over environment variables, which take priority
over a .env file in the working directory:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Settings

	-p             PORT             Server port (default 5000)
	-d             DATABASE_URL     Database DSN (not needed for memory)
	-t             DATABASE_TYPE    sqlite (default), postgres or memory
	-redis         REDIS_URL        Enables cross-instance vote updates
	-origins       ALLOWED_ORIGINS  Comma separated CORS origins
	-trust-proxy   TRUST_PROXY      Derive voter identity from proxy headers
	-log-level     LOG_LEVEL        debug, info, warn, error
	-log-format    LOG_FORMAT       text or json
	-identity-salt IDENTITY_SALT    Required HMAC salt for voter identities
*/
package cliparse
