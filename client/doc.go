// Package client is the Go SDK for the fpm data API.
//
//	c, err := client.New(&client.Config{
//		AppKey:    "123123",
//		MasterKey: "123123",
//		Endpoint:  "http://localhost:9090/api",
//		Version:   "0.0.1",
//	})
//
//	rec, err := c.Query("fake").
//		Select("id,name,value").
//		Condition("name = ?", "c").
//		Page(1, 10).
//		Sort("id-").
//		First(ctx)
//
//	obj := c.Object("fake", map[string]interface{}{"name": "c"})
//	err = obj.Save(ctx, map[string]interface{}{"value": 100})
//	err = obj.Remove(ctx, nil)
//
// Every call is signed with the master key. Errors reported by the server
// are returned as *errors.APIError and match the sentinels of the errors
// package, so errors.IsNotFound works on them.
package client
