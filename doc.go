/*
Package fpmstore provides generic table storage behind a signed HTTP data API,
with PostgreSQL, DynamoDB and in-memory backends.

The module is organized in layers:
  - datastore: the DataStore interface and its pg, ddb and in-memory (mock) engines
  - server: business modules ("common", "system") and the HTTP transport
  - client: the Go SDK, with chainable Query and Object handles
  - events: change events published to Kafka after writes

This package ties the layers together: a thread-safe Storage manager of named
DataStores, OpenDataStore to build one from configuration, and Collection for
typed access to a table.

Basic Usage:

	ds, err := fpmstore.OpenDataStore(ctx, &cfg.DB, loggers)

	fakes, err := fpmstore.NewCollection[testmodels.Fake](ds)
	created, err := fakes.Create(ctx, testmodels.Fake{Name: "c", Value: 100})

	q := fakes.Query().SetCondition("name = ?", "c").AddSorter(storagemodels.Sorter{Sortby: "id", Asc: "desc"})
	first, err := fakes.First(ctx, q)

Remote callers use the client package instead:

	c, _ := client.New(&client.Config{AppKey: "123123", MasterKey: "123123", Endpoint: "http://localhost:9090/api"})
	rec, err := c.Query("fake").Select("id,name").Condition("name = ?", "c").Page(1, 10).Sort("id-").First(ctx)
*/
package fpmstore
