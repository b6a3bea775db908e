// Provides platform-appropriate paths for ctrstep.
//
// Cache paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows, with "ctrstep" as the subdirectory under each base
// path. Pulled images land in the images cache as "<hash>.simg" files.
package paths
