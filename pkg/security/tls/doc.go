/*
Package tls provides the one certificate-validity check pkg/ca depends on
when loading operator-supplied root CA material at startup.
*/
package tls
