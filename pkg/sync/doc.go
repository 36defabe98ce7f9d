/*
The sync package implements mcsync's sync algorithm. It moves a Minecraft world
between the user's machine and a git repository shared by every player.

There are two flows:
1) Run -- The automatic flow. It downloads the latest world if the local copy
   is stale, waits for the game to open, flags the player as online, waits for
   the game to close, flags the player as offline, and then uploads the world.
   A player that finds someone else online is stopped before flagging
   themselves online, so that only one copy of the world is ever being played.
2) Upload and Download -- The manual flow. It warns about other players and
   stale copies, but never blocks on them, and doesn't track presence.

The repository is the only point of coordination. Every change is pulled
before it's made and pushed right after, and a push that loses a race with
another player fails rather than being retried.
*/
package sync
