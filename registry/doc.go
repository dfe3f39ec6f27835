/*
Package registry maps Go models to tables and tables to JSON schemas.

Model Registry:
Associates Go types with the table they are stored in:

	registry.RegisterModel[User]("users")
	table, ok := registry.TableOf[User]()

Types that implement TableName() string resolve without registration.

Schema Registry:
Validates rows before they are created. Schemas are JSON Schema documents,
usually loaded from a directory holding one <table>.json per table:

	schemas := registry.NewSchemaRegistry()
	if _, err := schemas.LoadSchemaDir("./schemas"); err != nil {
	    return err
	}
	err := schemas.Validate("users", row) // *errors.ValidationError on failure

Tables without a schema accept any row. Both registries are thread-safe.
*/
package registry
