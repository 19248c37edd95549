package mcpserver

// ImportGuide explains to MCP clients how browsing and importing behave.
const ImportGuide = `# Sideload Import Guide

Sideload registers files that already exist on the server as media assets.

## Browsing

- Call ` + "`browse_directory`" + ` without a path to list the configured root.
- Pass an absolute directory path to descend. Paths outside the root are rejected.
- Every file entry reports ` + "`importable`" + ` (its type is allowed) and ` + "`imported`" + `
  (an asset already records this file as its source, or the file already lives in the
  storage area and is registered).

## Importing

- Call ` + "`import_files`" + ` with absolute paths taken from ` + "`browse_directory`" + `.
- Files are processed one at a time, in order. One failure never stops the others.
- Each result has ` + "`success`" + `, and either ` + "`asset_id`" + ` and ` + "`url`" + ` or ` + "`error`" + `.
- A file that was imported before fails with "This file has already been imported."
- Images get their dimensions read and derived sizes generated after registration.

## Settings

- ` + "`get_settings`" + ` shows the browse root, the import behavior and the allow list.
- With import behavior ` + "`copy`" + ` the source stays in place. With ` + "`move`" + ` it is
  removed once the copy is stored.
- An empty allow list permits every file type the media library accepts.
`
