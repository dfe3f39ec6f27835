/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

Each logical table maps to a DynamoDB table named <TablePrefix><table> whose
partition key is the attribute "id". The DynamodbDataStore supports:
  - SQL-like conditions translated to filter expressions (see package expr)
  - Soft delete through a deleted_at attribute
  - GetItem lookups for plain "id = ?" conditions
  - PartiQL through Raw and Execute
  - Enhanced streaming with retry logic

Conditions are translated, not executed:

	name = ? and value > 10   ->   (#n0 = :v0) AND (#n1 > :v1)
	name like 'ab%'           ->   begins_with(#n0, :v0)
	1=1                       ->   (no filter)

Find, Count and First scan every page of the filtered table and apply
ordering and paging in memory. Transactions are not supported.

Streaming:
The enhanced streaming API supports configurable options:

	results := store.Stream(ctx, q,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("Processed %d items", p.ItemsProcessed)
	    }),
	)
*/
package ddb
