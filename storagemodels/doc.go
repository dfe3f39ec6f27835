/*
Package storagemodels defines the data structures used throughout fpmstore.

Key Types:

QueryData:
A backend-neutral query: table, condition with positional arguments, projection,
paging and ordering.

	q := storagemodels.NewQuery().
	    SetTable("fake").
	    SetCondition("name = ? and value > ?", "c", 10).
	    AddFields("id", "name", "updateAt").
	    AddSorter(storagemodels.Sorter{Sortby: "id", Asc: "desc"}).
	    SetPager(&storagemodels.Pagination{Skip: 0, Limit: 10})

QueryRequest:
The JSON param accepted by the common business module, converted with ParseQuery:

	{"table": "fake", "condition": {"name": "c"}, "fields": "id,name",
	 "skip": 0, "limit": 10, "sort": "id-"}

Sort specs end in "-" for descending and "+" (or nothing) for ascending.
A limit of zero means no paging. The virtual fields createAt and updateAt
select the managed timestamps as epoch milliseconds.

StreamResult:
Rows delivered by DataStore.Stream with metadata:

	type StreamResult struct {
	    Item  Record     // The row
	    Error error      // Row or page level error, if any
	    Meta  StreamMeta // Metadata about this row
	}

StreamOptions:
Configuration for streaming behavior:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
