// Package config loads the fpmstore server configuration.
//
// Settings come from a YAML file, optionally overridden by FPM_* environment
// variables, which may in turn be loaded from a .env file:
//
//	server:
//	  addr: ":9090"
//	  path: /api
//	  timestampSkew: 5m
//	log:
//	  level: info
//	db:
//	  engine: postgres      # postgres | dynamodb | memory
//	  migrations: ./migrations
//	  postgres:
//	    host: localhost
//	    database: fpm
//	apps:
//	  - appkey: "123123"
//	    masterKey: "123123"
//	events:
//	  kafka:
//	    brokers: ["localhost:9092"]
//	    topic: fpm-changes
//
// Watch reloads the file on change so that app keys can be rotated without a
// restart.
package config
