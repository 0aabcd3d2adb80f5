/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index, and may possess secondary indexes (1:1 or 1:N).
* Easy queries for one and iteration.

Domain packages embed a Bucket in a type-safe wrapper, so that all
data stored under one prefix is the same type.
*/
package orm
