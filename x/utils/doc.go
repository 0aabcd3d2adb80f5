/*
Package utils contains decorators that are not tied to a domain:
transaction savepoints, panic recovery, logging, metrics and
result tagging.
*/
package utils
