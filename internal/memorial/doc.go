// Package memorial renders legal boundary descriptions from resolved
// parcel and block records. It only reads the records it is given, so the
// phrasing can change without touching the geometry stages.
package memorial
