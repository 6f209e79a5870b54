// Package processor walks a game or mod directory for Localization.txt
// files and translates them with a bounded pool of workers, one file per
// worker. Each file is parsed, missing languages are filled in through the
// translation engine, and the result is written next to the source as
// Localization.translated.txt.
package processor
