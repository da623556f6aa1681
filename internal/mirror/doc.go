/*
Package mirror keeps a replica directory an exact copy of a source directory.

A pass walks both trees one directory level at a time. Replica entries with no
source counterpart are removed, then every source entry is copied when the
replica copy is missing or its md5 differs, and subdirectories are descended
into. Failures are recorded per entry in SyncStats and never stop the pass.

The Driver repeats passes on a fixed interval until cancelled.
*/
package mirror
